package config

import (
	"time"

	"mercator-hq/storage-helper/pkg/artifact"
	"mercator-hq/storage-helper/pkg/artifact/rules"
)

// Config is the root configuration structure for storage-helper.
type Config struct {
	// Storage selects the blob store holding the package artifacts and
	// describes how artifacts are laid out and served.
	Storage StorageConfig `yaml:"storage"`

	// ImportMapDeployer is the service whose import maps define which
	// packages are in use.
	ImportMapDeployer ImportMapDeployerConfig `yaml:"import_map_deployer"`

	// DefaultAction applies to unused packages no rule matched.
	// Options: "keep", "delete" (case-insensitive)
	// Default: "keep"
	DefaultAction string `yaml:"default_action"`

	// Rules are evaluated in order; the first matching rule decides.
	Rules []RuleConfig `yaml:"rules"`

	// Journal controls the SQLite record of runs.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig contains blob storage configuration.
type StorageConfig struct {
	// Type is the storage backend.
	// Options: "gcs", "s3"
	// Default: "gcs"
	Type string `yaml:"type"`

	// Bucket is the bucket holding the package artifacts. Required.
	Bucket string `yaml:"bucket"`

	// PathPrefix is the path under which packages are stored, including
	// the trailing slash (e.g. "my-prefix/"). Optional.
	PathPrefix string `yaml:"path_prefix"`

	// AssetBaseURL is the public URL the bucket is served from, as it
	// appears in import maps (e.g. "https://assets.example.com/"). Required.
	AssetBaseURL string `yaml:"asset_base_url"`

	// DeleteConcurrency is the number of packages deleted at once.
	// Default: 4
	DeleteConcurrency int `yaml:"delete_concurrency"`

	// DeleteRate limits deletions per second. 0 means unlimited.
	// Default: 0
	DeleteRate float64 `yaml:"delete_rate"`

	// GCS contains Google Cloud Storage settings.
	GCS GCSConfig `yaml:"gcs"`

	// S3 contains Amazon S3 settings.
	S3 S3Config `yaml:"s3"`
}

// GCSConfig contains Google Cloud Storage settings.
type GCSConfig struct {
	// CredentialsFile is a service account key file.
	// Default: "" (application default credentials)
	CredentialsFile string `yaml:"credentials_file"`

	// Endpoint overrides the JSON API URL, e.g. for an emulator.
	Endpoint string `yaml:"endpoint"`
}

// S3Config contains Amazon S3 settings.
type S3Config struct {
	// Region is the bucket region.
	// Default: "" (resolved by the AWS SDK)
	Region string `yaml:"region"`

	// Endpoint overrides the service URL for S3-compatible stores.
	Endpoint string `yaml:"endpoint"`

	// UsePathStyle addresses the bucket in the URL path.
	// Default: false
	UsePathStyle bool `yaml:"use_path_style"`
}

// ImportMapDeployerConfig contains import-map deployer settings.
type ImportMapDeployerConfig struct {
	// URL is the deployer base URL. Required.
	URL string `yaml:"url"`

	// Username for HTTP basic auth. Usually set through IMD_USERNAME.
	Username string `yaml:"username"`

	// Password for HTTP basic auth. Usually set through IMD_PASSWORD.
	Password string `yaml:"password"`

	// Timeout bounds each request to the deployer.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// FetchConcurrency is the number of import maps fetched at once.
	// Default: 8
	FetchConcurrency int `yaml:"fetch_concurrency"`
}

// RuleConfig is one retention rule.
type RuleConfig struct {
	// Name identifies the rule in logs and the journal.
	Name string `yaml:"name"`

	// Action applied when the rule matches.
	// Options: "keep", "delete" (case-insensitive)
	Action string `yaml:"action"`

	// VersionSelector is a regular expression matched against the version.
	// Optional.
	VersionSelector string `yaml:"version_selector"`

	// OlderThan matches packages created before now minus the given age.
	// Optional.
	OlderThan *AgeConfig `yaml:"older_than"`
}

// AgeConfig is an amount of a time unit.
type AgeConfig struct {
	// Amount of units. Must not be negative.
	Amount int `yaml:"amount"`

	// Unit, e.g. "day", "days", "d", "week", "month", "M", "year".
	Unit string `yaml:"unit"`
}

// JournalConfig contains run journal settings.
type JournalConfig struct {
	// Enabled records every run in the journal.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	// Default: "data/journal.db"
	Path string `yaml:"path"`

	// RetentionDays prunes runs that started more than this many days ago.
	// 0 keeps runs forever.
	RetentionDays int `yaml:"retention_days"`

	// MaxRuns keeps at most this many runs, dropping the oldest.
	// 0 means unlimited.
	MaxRuns int `yaml:"max_runs"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics export configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics export configuration. A run is a short
// batch job, so metrics are written to a node-exporter textfile and/or
// pushed to a Prometheus Pushgateway instead of being scraped.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "storage_helper"
	Namespace string `yaml:"namespace"`

	// TextfilePath is written in the Prometheus text format after a run.
	// Optional.
	TextfilePath string `yaml:"textfile_path"`

	// PushGatewayURL receives the metrics after a run. Optional.
	PushGatewayURL string `yaml:"push_gateway_url"`

	// JobName is the Pushgateway job label.
	// Default: "storage-helper"
	JobName string `yaml:"job_name"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans are
// exported over OTLP/gRPC.
type TracingConfig struct {
	// Enabled controls whether runs are traced.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the collector address as host:port.
	// Required when enabled.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export request.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler selects which runs are traced.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of runs traced by the "ratio" sampler.
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service.name resource attribute.
	// Default: "storage-helper"
	ServiceName string `yaml:"service_name"`
}

// Action returns the parsed default action.
func (c *Config) Action() (artifact.Action, error) {
	return artifact.ParseAction(c.DefaultAction)
}

// RuleDefinitions converts the configured rules for rules.BuildChain.
func (c *Config) RuleDefinitions() []rules.Definition {
	defs := make([]rules.Definition, 0, len(c.Rules))
	for _, r := range c.Rules {
		def := rules.Definition{
			Name:            r.Name,
			Action:          r.Action,
			VersionSelector: r.VersionSelector,
		}
		if r.OlderThan != nil {
			def.OlderThan = &rules.AgeSpec{Amount: r.OlderThan.Amount, Unit: r.OlderThan.Unit}
		}
		defs = append(defs, def)
	}
	return defs
}
