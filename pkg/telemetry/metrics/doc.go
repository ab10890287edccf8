// Package metrics provides Prometheus metrics for storage-helper runs.
//
// # Overview
//
// The Collector implements retention.Observer and records:
//
//   - Decision Metrics: decisions by action and reason, matches per rule
//   - Deletion Metrics: attempts by outcome and per-package duration
//   - Run Metrics: last run timestamp, duration, package counts by state
//
// A run is a batch job, so metrics are exported once when it ends: written
// to a node exporter textfile, pushed to a Pushgateway, or both.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	cleaner := retention.NewCleaner(client, client, engine, mode,
//		retention.WithObserver(collector))
//
//	summary, err := cleaner.Clean(ctx)
//	if exportErr := collector.Export(ctx); exportErr != nil {
//		logger.Warn("metrics export failed", "error", exportErr)
//	}
//
// All Collector methods are no-ops when metrics are disabled.
package metrics
