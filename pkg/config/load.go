package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Credential environment variables for the import-map deployer. They
// always override the file values.
const (
	EnvUsername = "IMD_USERNAME"
	EnvPassword = "IMD_PASSWORD"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention STORAGE_HELPER_SECTION_FIELD (e.g., STORAGE_HELPER_STORAGE_BUCKET),
// plus IMD_USERNAME and IMD_PASSWORD for the deployer credentials.
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables that are already set win. A missing file is not
// an error when optional is true.
func LoadEnvFile(path string, optional bool) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if optional && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %q: %w", path, err)
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean and duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Storage overrides
	if val := os.Getenv("STORAGE_HELPER_STORAGE_TYPE"); val != "" {
		cfg.Storage.Type = val
	}
	if val := os.Getenv("STORAGE_HELPER_STORAGE_BUCKET"); val != "" {
		cfg.Storage.Bucket = val
	}
	if val := os.Getenv("STORAGE_HELPER_STORAGE_PATH_PREFIX"); val != "" {
		cfg.Storage.PathPrefix = val
	}
	if val := os.Getenv("STORAGE_HELPER_STORAGE_ASSET_BASE_URL"); val != "" {
		cfg.Storage.AssetBaseURL = val
	}
	if val := os.Getenv("STORAGE_HELPER_STORAGE_DELETE_CONCURRENCY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Storage.DeleteConcurrency = i
		}
	}
	if val := os.Getenv("STORAGE_HELPER_STORAGE_DELETE_RATE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Storage.DeleteRate = f
		}
	}
	if val := os.Getenv("STORAGE_HELPER_STORAGE_GCS_CREDENTIALS_FILE"); val != "" {
		cfg.Storage.GCS.CredentialsFile = val
	}
	if val := os.Getenv("STORAGE_HELPER_STORAGE_GCS_ENDPOINT"); val != "" {
		cfg.Storage.GCS.Endpoint = val
	}
	if val := os.Getenv("STORAGE_HELPER_STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("STORAGE_HELPER_STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("STORAGE_HELPER_STORAGE_S3_USE_PATH_STYLE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Storage.S3.UsePathStyle = b
		}
	}

	// Import-map deployer overrides
	if val := os.Getenv("STORAGE_HELPER_IMPORT_MAP_DEPLOYER_URL"); val != "" {
		cfg.ImportMapDeployer.URL = val
	}
	if val := os.Getenv("STORAGE_HELPER_IMPORT_MAP_DEPLOYER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.ImportMapDeployer.Timeout = d
		}
	}
	if val := os.Getenv("STORAGE_HELPER_IMPORT_MAP_DEPLOYER_FETCH_CONCURRENCY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.ImportMapDeployer.FetchConcurrency = i
		}
	}
	if val := os.Getenv(EnvUsername); val != "" {
		cfg.ImportMapDeployer.Username = val
	}
	if val := os.Getenv(EnvPassword); val != "" {
		cfg.ImportMapDeployer.Password = val
	}

	// Retention overrides
	if val := os.Getenv("STORAGE_HELPER_DEFAULT_ACTION"); val != "" {
		cfg.DefaultAction = val
	}

	// Journal overrides
	if val := os.Getenv("STORAGE_HELPER_JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = b
		}
	}
	if val := os.Getenv("STORAGE_HELPER_JOURNAL_PATH"); val != "" {
		cfg.Journal.Path = val
	}
	if val := os.Getenv("STORAGE_HELPER_JOURNAL_RETENTION_DAYS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Journal.RetentionDays = n
		}
	}
	if val := os.Getenv("STORAGE_HELPER_JOURNAL_MAX_RUNS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Journal.MaxRuns = n
		}
	}

	// Telemetry overrides
	if val := os.Getenv("STORAGE_HELPER_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("STORAGE_HELPER_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("STORAGE_HELPER_TELEMETRY_LOGGING_ADD_SOURCE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.AddSource = b
		}
	}
	if val := os.Getenv("STORAGE_HELPER_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("STORAGE_HELPER_TELEMETRY_METRICS_TEXTFILE_PATH"); val != "" {
		cfg.Telemetry.Metrics.TextfilePath = val
	}
	if val := os.Getenv("STORAGE_HELPER_TELEMETRY_METRICS_PUSH_GATEWAY_URL"); val != "" {
		cfg.Telemetry.Metrics.PushGatewayURL = val
	}
	if val := os.Getenv("STORAGE_HELPER_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("STORAGE_HELPER_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("STORAGE_HELPER_TELEMETRY_TRACING_SAMPLER"); val != "" {
		cfg.Telemetry.Tracing.Sampler = val
	}
	if val := os.Getenv("STORAGE_HELPER_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}
