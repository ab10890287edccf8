package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"mercator-hq/storage-helper/pkg/artifact"
	"mercator-hq/storage-helper/pkg/artifact/rules"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "storage.bucket").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateImportMapDeployer(&cfg.ImportMapDeployer)...)
	errs = append(errs, validateRetention(cfg)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateStorage validates storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	validTypes := map[string]bool{"gcs": true, "s3": true}
	if !validTypes[cfg.Type] {
		errs = append(errs, FieldError{
			Field:   "storage.type",
			Message: fmt.Sprintf("invalid storage type %q: must be 'gcs' or 's3'", cfg.Type),
		})
	}

	if cfg.Bucket == "" {
		errs = append(errs, FieldError{
			Field:   "storage.bucket",
			Message: "bucket is required",
		})
	}

	if cfg.PathPrefix != "" && !strings.HasSuffix(cfg.PathPrefix, "/") {
		errs = append(errs, FieldError{
			Field:   "storage.path_prefix",
			Message: "path prefix must end with /",
		})
	}

	if cfg.AssetBaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "storage.asset_base_url",
			Message: "asset base URL is required",
		})
	} else if err := validateHTTPURL(cfg.AssetBaseURL); err != nil {
		errs = append(errs, FieldError{
			Field:   "storage.asset_base_url",
			Message: err.Error(),
		})
	}

	if cfg.DeleteConcurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "storage.delete_concurrency",
			Message: "delete concurrency must be at least 1",
		})
	}
	if cfg.DeleteRate < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.delete_rate",
			Message: "delete rate must be non-negative",
		})
	}

	if cfg.GCS.Endpoint != "" {
		if err := validateHTTPURL(cfg.GCS.Endpoint); err != nil {
			errs = append(errs, FieldError{
				Field:   "storage.gcs.endpoint",
				Message: err.Error(),
			})
		}
	}
	if cfg.S3.Endpoint != "" {
		if err := validateHTTPURL(cfg.S3.Endpoint); err != nil {
			errs = append(errs, FieldError{
				Field:   "storage.s3.endpoint",
				Message: err.Error(),
			})
		}
	}

	return errs
}

// validateImportMapDeployer validates the deployer connection settings.
// Credentials are required because the deployer only serves authenticated
// requests.
func validateImportMapDeployer(cfg *ImportMapDeployerConfig) []FieldError {
	var errs []FieldError

	if cfg.URL == "" {
		errs = append(errs, FieldError{
			Field:   "import_map_deployer.url",
			Message: "URL is required",
		})
	} else if err := validateHTTPURL(cfg.URL); err != nil {
		errs = append(errs, FieldError{
			Field:   "import_map_deployer.url",
			Message: err.Error(),
		})
	}

	if cfg.Username == "" {
		errs = append(errs, FieldError{
			Field:   "import_map_deployer.username",
			Message: fmt.Sprintf("username is required (set %s)", EnvUsername),
		})
	}
	if cfg.Password == "" {
		errs = append(errs, FieldError{
			Field:   "import_map_deployer.password",
			Message: fmt.Sprintf("password is required (set %s)", EnvPassword),
		})
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "import_map_deployer.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.FetchConcurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "import_map_deployer.fetch_concurrency",
			Message: "fetch concurrency must be at least 1",
		})
	}

	return errs
}

// validateRetention validates the default action and the rule list.
func validateRetention(cfg *Config) []FieldError {
	var errs []FieldError

	if _, err := artifact.ParseAction(cfg.DefaultAction); err != nil {
		errs = append(errs, FieldError{
			Field:   "default_action",
			Message: fmt.Sprintf("invalid action %q: must be 'keep' or 'delete'", cfg.DefaultAction),
		})
	}

	names := make(map[string]int, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		prefix := fmt.Sprintf("rules[%d]", i)

		if rule.Name == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: "rule name is required",
			})
		} else if first, ok := names[rule.Name]; ok {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("duplicate rule name %q (first used by rules[%d])", rule.Name, first),
			})
		} else {
			names[rule.Name] = i
		}

		if _, err := artifact.ParseAction(rule.Action); err != nil {
			errs = append(errs, FieldError{
				Field:   prefix + ".action",
				Message: fmt.Sprintf("invalid action %q: must be 'keep' or 'delete'", rule.Action),
			})
		}

		if rule.VersionSelector != "" {
			if _, err := regexp.Compile(rule.VersionSelector); err != nil {
				errs = append(errs, FieldError{
					Field:   prefix + ".version_selector",
					Message: fmt.Sprintf("invalid regular expression: %v", err),
				})
			}
		}

		if rule.OlderThan != nil {
			age := rules.AgeSpec{Amount: rule.OlderThan.Amount, Unit: rule.OlderThan.Unit}
			if err := age.Validate(); err != nil {
				errs = append(errs, FieldError{
					Field:   prefix + ".older_than",
					Message: err.Error(),
				})
			}
		}
	}

	return errs
}

// validateJournal validates journal configuration.
func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "journal.path",
			Message: "journal path is required when the journal is enabled",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention_days",
			Message: "retention days cannot be negative",
		})
	}
	if cfg.MaxRuns < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.max_runs",
			Message: "max runs cannot be negative",
		})
	}

	return errs
}

// validateTelemetry validates logging, metrics and tracing configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.TextfilePath == "" && cfg.Metrics.PushGatewayURL == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics",
				Message: "textfile_path or push_gateway_url is required when metrics are enabled",
			})
		}
		if cfg.Metrics.PushGatewayURL != "" {
			if err := validateHTTPURL(cfg.Metrics.PushGatewayURL); err != nil {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.push_gateway_url",
					Message: err.Error(),
				})
			}
		}
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "collector endpoint is required when tracing is enabled",
			})
		} else if _, _, err := net.SplitHostPort(cfg.Tracing.Endpoint); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: fmt.Sprintf("invalid endpoint %q: must be host:port", cfg.Tracing.Endpoint),
			})
		}
		if cfg.Tracing.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.timeout",
				Message: "timeout cannot be negative",
			})
		}
	}

	switch cfg.Tracing.Sampler {
	case "always", "never":
	case "ratio":
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("sample ratio must be between 0 and 1, got %g", cfg.Tracing.SampleRatio),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}

	return errs
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: host is required", raw)
	}
	return nil
}
