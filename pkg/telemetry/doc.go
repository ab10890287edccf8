// Package telemetry groups the observability packages of storage-helper.
//
// # Components
//
//   - logging: slog setup with credential redaction and run context fields
//   - metrics: Prometheus metrics exported to a textfile or Pushgateway
//   - tracing: OpenTelemetry spans for each run, exported over OTLP
//   - health: concurrent reachability checks for validate --check
//
// # Usage
//
//	cfg := config.GetConfig()
//	logger, err := logging.Setup(logging.Config{
//	    Level:  cfg.Telemetry.Logging.Level,
//	    Format: cfg.Telemetry.Logging.Format,
//	})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
package telemetry
