package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/storage-helper/pkg/artifact/journal"
	"mercator-hq/storage-helper/pkg/artifact/retention"
	"mercator-hq/storage-helper/pkg/artifact/rules"
	"mercator-hq/storage-helper/pkg/artifact/storage"
	"mercator-hq/storage-helper/pkg/artifact/usage"
	"mercator-hq/storage-helper/pkg/cli"
	"mercator-hq/storage-helper/pkg/config"
	"mercator-hq/storage-helper/pkg/importmap"
	"mercator-hq/storage-helper/pkg/telemetry/logging"
	"mercator-hq/storage-helper/pkg/telemetry/metrics"
	"mercator-hq/storage-helper/pkg/telemetry/tracing"
)

// metricsExportTimeout bounds the metrics export at the end of a run. It
// runs on a fresh context so an interrupted run still reports.
const metricsExportTimeout = 10 * time.Second

// tracingShutdownTimeout bounds the final span flush.
const tracingShutdownTimeout = 5 * time.Second

// Failure stages recorded in run_failures_total.
const (
	stageImportMaps = "import_maps"
	stageRules      = "rules"
	stageListing    = "listing"
)

var cleanFlags struct {
	dryRun   bool
	output   string
	progress bool
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete packages that no import map uses",
	Long: `Run one cleaning pass over the package store.

The import map of every environment known to the import-map deployer is
fetched first. Packages referenced by any of them are kept. Every other
package is decided by the retention rules, and by the default action when no
rule matches. With --dry-run the decisions are reported and nothing is
deleted.

Exit codes:
  0  run completed
  1  run failed
  2  configuration error
  3  run completed but some deletions failed

Examples:
  # Preview the run
  storage-helper clean --dry-run

  # Delete with a progress bar and a JSON summary
  storage-helper clean --progress --output json`,
	RunE: runCleanCmd,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().BoolVar(&cleanFlags.dryRun, "dry-run", false, "report decisions without deleting anything")
	cleanCmd.Flags().StringVarP(&cleanFlags.output, "output", "o", "text", "summary format: text, json, csv")
	cleanCmd.Flags().BoolVar(&cleanFlags.progress, "progress", false, "show a deletion progress bar on stderr")
}

func runCleanCmd(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(cleanFlags.output)
	if err != nil {
		return cli.NewCommandError("clean", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	source, err := importmap.NewClient(
		cfg.ImportMapDeployer.URL,
		cfg.ImportMapDeployer.Username,
		cfg.ImportMapDeployer.Password,
		importmap.WithHTTPClient(&http.Client{
			Timeout:   cfg.ImportMapDeployer.Timeout,
			Transport: tracing.NewTransport(nil),
		}),
	)
	if err != nil {
		return cli.NewConfigError("import_map_deployer", err.Error())
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("clean", err)
	}

	run := cleanRun{
		mode:    retention.ModeFor(cleanFlags.dryRun),
		source:  source,
		backend: backend,
		now:     time.Now,
	}
	if cleanFlags.progress && run.mode == retention.ModeLive {
		run.observers = append(run.observers, cli.NewDeletionProgress(cmd.ErrOrStderr()))
	}

	summary, runErr := runClean(ctx, cfg, run)
	if summary != nil {
		if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.RunReport{Summary: summary}); err != nil {
			return cli.NewCommandError("clean", err)
		}
	}
	return runErr
}

// cleanRun holds what one clean invocation runs against.
type cleanRun struct {
	mode      retention.Mode
	source    usage.Source
	backend   storage.Backend
	observers []retention.Observer
	now       func() time.Time
}

// runClean loads the used packages, builds the decision engine and runs
// one cleaning pass. The summary is returned whenever storage could be
// listed, also when some deletions failed.
func runClean(ctx context.Context, cfg *config.Config, run cleanRun) (*retention.Summary, error) {
	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	logger := slog.Default().With("component", "cmd.clean")

	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer shutdownTracer(ctx, tracer, logger)

	ctx, span := tracer.Start(ctx, "clean", trace.WithAttributes(
		tracing.AttrRunID.String(runID),
		tracing.AttrRunMode.String(string(run.mode)),
		tracing.AttrStorageBackend.String(cfg.Storage.Type),
	))
	defer span.End()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	defer exportMetrics(ctx, collector, logger)

	used, err := loadUsed(ctx, cfg, tracer, run.source)
	if err != nil {
		tracing.SetStatus(span, err)
		collector.RecordFailure(stageImportMaps, run.now())
		return nil, cli.NewCommandError("clean", fmt.Errorf("loading used packages: %w", err))
	}
	collector.SetUsedPackages(used.Len())

	defaultAction, err := cfg.Action()
	if err != nil {
		tracing.SetStatus(span, err)
		collector.RecordFailure(stageRules, run.now())
		return nil, cli.NewConfigError("default_action", err.Error())
	}

	chain, err := rules.BuildChain(cfg.RuleDefinitions(), run.now())
	if err != nil {
		tracing.SetStatus(span, err)
		collector.RecordFailure(stageRules, run.now())
		return nil, cli.NewConfigError("rules", err.Error())
	}
	for _, name := range chain.Unreachable() {
		logger.WarnContext(ctx, "rule can never match: an earlier rule matches every package", "rule", name)
	}

	opts := []retention.Option{
		retention.WithRunID(runID),
		retention.WithConcurrency(cfg.Storage.DeleteConcurrency),
		retention.WithDeleteRate(cfg.Storage.DeleteRate),
		retention.WithClock(run.now),
		retention.WithObserver(collector),
		retention.WithTracer(tracer.Tracer()),
	}
	for _, o := range run.observers {
		opts = append(opts, retention.WithObserver(o))
	}

	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		jnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, cli.NewCommandError("clean", err)
		}
		defer jnl.Close()
		opts = append(opts, retention.WithJournal(jnl))
	}

	client := storage.NewClient(run.backend, cfg.Storage.PathPrefix)
	engine := retention.NewEngine(used, chain, defaultAction)
	cleaner := retention.NewCleaner(client, client, engine, run.mode, opts...)

	summary, err := cleaner.Clean(ctx)
	if summary != nil {
		span.SetAttributes(tracing.CountAttributes(summary.Listed, summary.ToDelete, summary.Deleted, summary.Failed)...)
	}
	tracing.SetStatus(span, err)
	if summary != nil && jnl != nil {
		pruneJournal(ctx, jnl, cfg.Journal, logger)
	}
	if err != nil {
		if summary == nil {
			collector.RecordFailure(stageListing, run.now())
		}
		return summary, cli.NewCommandError("clean", err)
	}
	return summary, nil
}

// loadUsed fetches every import map and collects the packages they use.
func loadUsed(ctx context.Context, cfg *config.Config, tracer *tracing.Tracer, source usage.Source) (*usage.Set, error) {
	ctx, span := tracer.Start(ctx, "import_maps.load")
	defer span.End()

	extractor := usage.NewExtractor(cfg.Storage.AssetBaseURL, cfg.Storage.PathPrefix)
	extractor.SetConcurrency(cfg.ImportMapDeployer.FetchConcurrency)

	used, err := extractor.Load(ctx, source)
	if err == nil {
		span.SetAttributes(tracing.AttrUsedPackages.Int(used.Len()))
	}
	tracing.SetStatus(span, err)
	return used, err
}

// pruneJournal applies the journal history limits. A failure is logged
// and does not fail the run.
func pruneJournal(ctx context.Context, j *journal.Journal, cfg config.JournalConfig, logger *slog.Logger) {
	pc := journal.PruneConfig{RetentionDays: cfg.RetentionDays, MaxRuns: cfg.MaxRuns}
	if !pc.Enabled() {
		return
	}
	if _, err := journal.NewPruner(j, pc).Prune(ctx); err != nil {
		logger.WarnContext(ctx, "failed to prune journal", "error", err)
	}
}

// newBackend connects to the configured blob store. Credentials come from
// the SDKs' ambient resolution.
func newBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Type {
	case "gcs":
		return storage.NewGCSBackend(ctx, storage.GCSConfig{
			Bucket:          cfg.Storage.Bucket,
			CredentialsFile: cfg.Storage.GCS.CredentialsFile,
			Endpoint:        cfg.Storage.GCS.Endpoint,
		})
	case "s3":
		return storage.NewS3Backend(ctx, storage.S3Config{
			Bucket:       cfg.Storage.Bucket,
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

func exportMetrics(ctx context.Context, collector *metrics.Collector, logger *slog.Logger) {
	exportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsExportTimeout)
	defer cancel()

	if err := collector.Export(exportCtx); err != nil {
		logger.WarnContext(ctx, "failed to export metrics", "error", err)
	}
}

func shutdownTracer(ctx context.Context, tracer *tracing.Tracer, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tracingShutdownTimeout)
	defer cancel()

	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.WarnContext(ctx, "failed to flush traces", "error", err)
	}
}
