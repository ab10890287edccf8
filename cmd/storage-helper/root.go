package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/storage-helper/pkg/cli"
	"mercator-hq/storage-helper/pkg/config"
	"mercator-hq/storage-helper/pkg/telemetry/logging"
)

const defaultEnvFile = ".env"

var (
	// Global flags
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "storage-helper",
	Short: "Storage helper - import-map aware package retention",
	Long: `Storage helper cleans the blob store that serves deployed packages.

Every package version referenced by an import map of the import-map deployer
is kept. For the rest, the configured retention rules decide whether the
version is kept or deleted, and the default action applies when no rule
matches.

Import-map deployer credentials are read from IMD_USERNAME and IMD_PASSWORD,
optionally loaded from a .env file.`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command and exits with a code describing the
// failure, if any.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file with IMD credentials (optional unless set explicitly)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the env file and the configuration file. The default
// env file may be absent; one named on the command line must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	optional := !cmd.Flags().Changed("env-file")
	if err := config.LoadEnvFile(envFile, optional); err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}

	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(cfg *config.Config) error {
	_, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    os.Stderr,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	return nil
}
