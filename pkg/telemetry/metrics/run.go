package metrics

import (
	"time"

	"mercator-hq/storage-helper/pkg/artifact/retention"
	"mercator-hq/storage-helper/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Package states reported by the packages gauge.
const (
	StateListed   = "listed"
	StateKept     = "kept"
	StateToDelete = "to_delete"
	StateDeleted  = "deleted"
	StateFailed   = "failed"
)

// RunMetrics describes the most recent run.
//
// Metrics:
//   - storage_helper_last_run_timestamp_seconds: When the run finished
//   - storage_helper_last_run_duration_seconds: How long the run took
//   - storage_helper_last_run_success: 1 when nothing failed
//   - storage_helper_last_run_dry_run: 1 for dry runs
//   - storage_helper_packages: Package counts by state
//   - storage_helper_used_packages: Packages referenced by import maps
//   - storage_helper_run_failures_total: Aborted runs by stage
type RunMetrics struct {
	lastRunTimestamp *prometheus.GaugeVec
	lastRunDuration  prometheus.Gauge
	lastRunSuccess   prometheus.Gauge
	lastRunDryRun    prometheus.Gauge
	packages         *prometheus.GaugeVec
	usedPackages     prometheus.Gauge
	failuresTotal    *prometheus.CounterVec
}

// NewRunMetrics creates and registers run metrics with the provided registry.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		lastRunTimestamp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished, by result",
			},
			[]string{"result"},
		),

		lastRunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "last_run_duration_seconds",
				Help:      "Duration of the last run in seconds",
			},
		),

		lastRunSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "last_run_success",
				Help:      "Whether the last run completed without failures (1) or not (0)",
			},
		),

		lastRunDryRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "last_run_dry_run",
				Help:      "Whether the last run was a dry run (1) or live (0)",
			},
		),

		packages: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "packages",
				Help:      "Number of packages in the last run by state",
			},
			[]string{"state"},
		),

		usedPackages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "used_packages",
				Help:      "Number of packages referenced by any import map",
			},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "run_failures_total",
				Help:      "Total number of runs that aborted, by stage",
			},
			[]string{"stage"},
		),
	}

	registry.MustRegister(
		rm.lastRunTimestamp,
		rm.lastRunDuration,
		rm.lastRunSuccess,
		rm.lastRunDryRun,
		rm.packages,
		rm.usedPackages,
		rm.failuresTotal,
	)

	return rm
}

// RecordRun sets the gauges from a run summary.
func (rm *RunMetrics) RecordRun(s *retention.Summary) {
	result := "success"
	success := 1.0
	if s.Failed > 0 {
		result = "failure"
		success = 0
	}

	rm.lastRunTimestamp.WithLabelValues(result).Set(float64(s.FinishedAt.Unix()))
	rm.lastRunDuration.Set(s.FinishedAt.Sub(s.StartedAt).Seconds())
	rm.lastRunSuccess.Set(success)

	dryRun := 0.0
	if s.Mode == retention.ModeDryRun {
		dryRun = 1
	}
	rm.lastRunDryRun.Set(dryRun)

	rm.packages.WithLabelValues(StateListed).Set(float64(s.Listed))
	rm.packages.WithLabelValues(StateKept).Set(float64(s.Kept))
	rm.packages.WithLabelValues(StateToDelete).Set(float64(s.ToDelete))
	rm.packages.WithLabelValues(StateDeleted).Set(float64(s.Deleted))
	rm.packages.WithLabelValues(StateFailed).Set(float64(s.Failed))
}

// RecordFailure records a run that aborted at stage.
func (rm *RunMetrics) RecordFailure(stage string, at time.Time) {
	rm.failuresTotal.WithLabelValues(stage).Inc()
	rm.lastRunTimestamp.WithLabelValues("failure").Set(float64(at.Unix()))
	rm.lastRunSuccess.Set(0)
}
