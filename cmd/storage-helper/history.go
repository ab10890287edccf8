package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/storage-helper/pkg/artifact/journal"
	"mercator-hq/storage-helper/pkg/cli"
	"mercator-hq/storage-helper/pkg/config"
)

const defaultHistoryLimit = 20

var historyFlags struct {
	runID  string
	limit  int
	output string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past cleaning runs from the journal",
	Long: `List cleaning runs recorded in the decision journal, most recent first,
or show every package decision of one run.

The journal must be enabled in the configuration.

Examples:
  # Last 20 runs
  storage-helper history

  # Decisions of one run as CSV
  storage-helper history --run 3f1c... --output csv`,
	RunE: runHistoryCmd,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyFlags.runID, "run", "", "show the decisions of this run")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", defaultHistoryLimit, "maximum number of runs to list")
	historyCmd.Flags().StringVarP(&historyFlags.output, "output", "o", "text", "output format: text, json, csv")
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(historyFlags.output)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	return showHistory(cmd.Context(), cmd.OutOrStdout(), cfg, format, historyFlags.runID, historyFlags.limit)
}

// showHistory prints the run list, or the entries of runID when set.
func showHistory(ctx context.Context, w io.Writer, cfg *config.Config, format cli.OutputFormat, runID string, limit int) error {
	if !cfg.Journal.Enabled {
		return cli.NewCommandError("history", errors.New("journal is disabled: set journal.enabled in the configuration"))
	}
	if limit < 1 {
		return cli.NewCommandError("history", fmt.Errorf("--limit must be at least 1, got %d", limit))
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer j.Close()

	var report any
	if runID != "" {
		run, err := j.Run(ctx, runID)
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		entries, err := j.Entries(ctx, runID)
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		report = cli.RunDetailReport{Run: run, Entries: entries}
	} else {
		runs, err := j.Runs(ctx, limit)
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		report = cli.HistoryReport{Runs: runs}
	}

	return cli.NewFormatter(format).FormatTo(w, report)
}
