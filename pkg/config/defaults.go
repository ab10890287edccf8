package config

import "time"

// Default values for configuration fields.
const (
	// Storage defaults
	DefaultStorageType       = "gcs"
	DefaultDeleteConcurrency = 4

	// Import-map deployer defaults
	DefaultImportMapTimeout          = 30 * time.Second
	DefaultImportMapFetchConcurrency = 8

	// Retention defaults
	DefaultAction = "keep"

	// Journal defaults
	DefaultJournalPath = "data/journal.db"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsNamespace = "storage_helper"
	DefaultMetricsJobName   = "storage-helper"
	DefaultTracingSampler   = "always"
	DefaultTracingService   = "storage-helper"
	DefaultTracingTimeout   = 10 * time.Second
)

// ApplyDefaults fills zero-valued fields with their defaults. Boolean
// fields default to false and are left alone.
func ApplyDefaults(cfg *Config) {
	// Storage defaults
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = DefaultStorageType
	}
	if cfg.Storage.DeleteConcurrency == 0 {
		cfg.Storage.DeleteConcurrency = DefaultDeleteConcurrency
	}

	// Import-map deployer defaults
	if cfg.ImportMapDeployer.Timeout == 0 {
		cfg.ImportMapDeployer.Timeout = DefaultImportMapTimeout
	}
	if cfg.ImportMapDeployer.FetchConcurrency == 0 {
		cfg.ImportMapDeployer.FetchConcurrency = DefaultImportMapFetchConcurrency
	}

	if cfg.DefaultAction == "" {
		cfg.DefaultAction = DefaultAction
	}

	// Journal defaults
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.JobName == "" {
		cfg.Telemetry.Metrics.JobName = DefaultMetricsJobName
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
