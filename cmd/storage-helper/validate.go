package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/storage-helper/pkg/artifact/journal"
	"mercator-hq/storage-helper/pkg/artifact/rules"
	"mercator-hq/storage-helper/pkg/artifact/storage"
	"mercator-hq/storage-helper/pkg/artifact/usage"
	"mercator-hq/storage-helper/pkg/cli"
	"mercator-hq/storage-helper/pkg/config"
	"mercator-hq/storage-helper/pkg/importmap"
	"mercator-hq/storage-helper/pkg/telemetry/health"
)

// Dependency check names.
const (
	checkImportMapDeployer = "import_map_deployer"
	checkStorage           = "storage"
	checkJournal           = "journal"
)

var validateFlags struct {
	check bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and retention rules",
	Long: `Load the configuration with environment overrides, validate it and build
the retention rule chain. With --check, the import-map deployer, the blob
store and the journal database are also contacted to verify they are
reachable with the configured credentials. Nothing is modified.

Rules listed after a rule that matches every package are reported as
unreachable.

Examples:
  storage-helper validate
  storage-helper validate --check --config /etc/storage-helper/config.yaml`,
	RunE: runValidateCmd,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.check, "check", false, "also verify that every dependency is reachable")
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := describeConfig(cmd.OutOrStdout(), cfg, time.Now()); err != nil {
		return err
	}
	if !validateFlags.check {
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	source, err := importmap.NewClient(
		cfg.ImportMapDeployer.URL,
		cfg.ImportMapDeployer.Username,
		cfg.ImportMapDeployer.Password,
		importmap.WithTimeout(cfg.ImportMapDeployer.Timeout),
	)
	if err != nil {
		return cli.NewConfigError("import_map_deployer", err.Error())
	}

	backend, backendErr := newBackend(ctx, cfg)
	return checkDependencies(ctx, cmd.OutOrStdout(), cfg, source, backend, backendErr)
}

// checkDependencies probes every service a run needs and prints one row
// per check. backendErr is reported as the storage check result when the
// backend could not be created.
func checkDependencies(ctx context.Context, w io.Writer, cfg *config.Config, source usage.Source, backend storage.Backend, backendErr error) error {
	checker := health.New(cfg.ImportMapDeployer.Timeout)

	checker.RegisterCheck(checkImportMapDeployer, func(ctx context.Context) error {
		_, err := source.ListEnvironments(ctx)
		return err
	})
	checker.RegisterCheck(checkStorage, func(ctx context.Context) error {
		if backendErr != nil {
			return backendErr
		}
		return backend.Ping(ctx)
	})
	if cfg.Journal.Enabled {
		checker.RegisterCheck(checkJournal, func(ctx context.Context) error {
			j, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			return j.Close()
		})
	}

	report := checker.Run(ctx)

	table := &cli.Table{Headers: []string{"CHECK", "STATUS", "DURATION", "MESSAGE"}}
	failed := 0
	for _, r := range report.Checks {
		if r.Status != health.StatusOK {
			failed++
		}
		table.Rows = append(table.Rows, []string{r.Name, r.Status, r.Duration.Round(time.Millisecond).String(), r.Message})
	}

	fmt.Fprintln(w)
	if err := cli.NewFormatter(cli.FormatText).FormatTo(w, table); err != nil {
		return err
	}

	if !report.Ready() {
		return cli.NewCommandError("validate", fmt.Errorf("%d of %d dependency checks failed", failed, len(report.Checks)))
	}
	fmt.Fprintln(w, "\n✓ All dependencies reachable")
	return nil
}

// describeConfig prints the effective retention setup of a loaded
// configuration.
func describeConfig(w io.Writer, cfg *config.Config, now time.Time) error {
	defaultAction, err := cfg.Action()
	if err != nil {
		return cli.NewConfigError("default_action", err.Error())
	}

	chain, err := rules.BuildChain(cfg.RuleDefinitions(), now)
	if err != nil {
		return cli.NewConfigError("rules", err.Error())
	}

	fmt.Fprintln(w, "✓ Configuration valid")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Storage: %s://%s/%s\n", cfg.Storage.Type, cfg.Storage.Bucket, cfg.Storage.PathPrefix)
	fmt.Fprintf(w, "Assets: %s\n", cfg.Storage.AssetBaseURL)
	fmt.Fprintf(w, "Import-map deployer: %s\n", cfg.ImportMapDeployer.URL)
	fmt.Fprintf(w, "Default action: %s\n", defaultAction)

	defs := cfg.RuleDefinitions()
	table := &cli.Table{Headers: []string{"#", "RULE", "ACTION", "VERSION", "OLDER THAN"}}
	for i, rule := range chain {
		selector := "*"
		if rule.VersionSelector != nil {
			selector = rule.VersionSelector.String()
		}
		age := "-"
		if defs[i].OlderThan != nil {
			age = defs[i].OlderThan.String()
		}
		table.Rows = append(table.Rows, []string{strconv.Itoa(i + 1), rule.Name, rule.Action.String(), selector, age})
	}
	if len(table.Rows) == 0 {
		table.Footer = []string{"No retention rules: every unused package gets the default action."}
	}

	fmt.Fprintf(w, "Rules: %d\n\n", len(chain))
	if err := cli.NewFormatter(cli.FormatText).FormatTo(w, table); err != nil {
		return err
	}

	for _, name := range chain.Unreachable() {
		fmt.Fprintf(w, "⚠ Rule %q is unreachable: an earlier rule matches every package\n", name)
	}
	return nil
}
