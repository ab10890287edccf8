package config

// ConfigBuilder assembles valid configurations for tests.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig returns a builder seeded with a valid GCS configuration.
func NewTestConfig() *ConfigBuilder {
	cfg := &Config{
		Storage: StorageConfig{
			Bucket:       "assets-bucket",
			AssetBaseURL: "https://assets.example.com/",
		},
		ImportMapDeployer: ImportMapDeployerConfig{
			URL:      "https://imd.example.com",
			Username: "imd-user",
			Password: "imd-pass",
		},
	}
	ApplyDefaults(cfg)
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the configuration.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

func (b *ConfigBuilder) WithStorageType(typ string) *ConfigBuilder {
	b.cfg.Storage.Type = typ
	return b
}

func (b *ConfigBuilder) WithPathPrefix(prefix string) *ConfigBuilder {
	b.cfg.Storage.PathPrefix = prefix
	return b
}

func (b *ConfigBuilder) WithDefaultAction(action string) *ConfigBuilder {
	b.cfg.DefaultAction = action
	return b
}

func (b *ConfigBuilder) WithRule(rule RuleConfig) *ConfigBuilder {
	b.cfg.Rules = append(b.cfg.Rules, rule)
	return b
}

func (b *ConfigBuilder) WithCredentials(username, password string) *ConfigBuilder {
	b.cfg.ImportMapDeployer.Username = username
	b.cfg.ImportMapDeployer.Password = password
	return b
}

func (b *ConfigBuilder) WithJournal(path string) *ConfigBuilder {
	b.cfg.Journal.Enabled = true
	b.cfg.Journal.Path = path
	return b
}

func (b *ConfigBuilder) WithMetrics(textfilePath, pushGatewayURL string) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = true
	b.cfg.Telemetry.Metrics.TextfilePath = textfilePath
	b.cfg.Telemetry.Metrics.PushGatewayURL = pushGatewayURL
	return b
}

// MinimalConfig returns the smallest configuration that passes validation.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
