// Package config provides configuration management for storage-helper.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// A dotenv file can seed the environment first with LoadEnvFile.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention STORAGE_HELPER_SECTION_FIELD.
// For example:
//
//   - STORAGE_HELPER_STORAGE_BUCKET overrides storage.bucket
//   - STORAGE_HELPER_DEFAULT_ACTION overrides default_action
//   - STORAGE_HELPER_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// The import-map deployer credentials are read from IMD_USERNAME and
// IMD_PASSWORD. Both are required, either from the file or the environment.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Example Configuration
//
//	storage:
//	  type: "gcs"
//	  bucket: "my-assets"
//	  path_prefix: "my-prefix/"
//	  asset_base_url: "https://assets.example.com/"
//
//	import_map_deployer:
//	  url: "https://imd.example.com"
//
//	default_action: "keep"
//
//	rules:
//	  - name: "keep-latest"
//	    action: "keep"
//	    version_selector: "^latest$"
//	  - name: "delete-release-candidates"
//	    action: "delete"
//	    version_selector: "-rc\\."
//	    older_than:
//	      amount: 14
//	      unit: "days"
//
// Validation errors include field paths:
//
//	configuration validation failed with 2 errors:
//	  - storage.bucket: bucket is required
//	  - rules[1].older_than: unknown age unit: "fortnight"
package config
