package config

// Config holds formscan configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Engines  map[string]EngineCfg `mapstructure:"engines" yaml:"engines"`
	Defaults DefaultsCfg          `mapstructure:"defaults" yaml:"defaults"`
	Server   ServerCfg            `mapstructure:"server" yaml:"server"`
}

// EngineCfg configures an OCR engine.
type EngineCfg struct {
	Type      string   `mapstructure:"type" yaml:"type"`                           // "dummy", "vision", "tesseract"
	Model     string   `mapstructure:"model" yaml:"model,omitempty"`               // Model name (for vision)
	APIKey    string   `mapstructure:"api_key" yaml:"api_key,omitempty"`           // API key (supports ${ENV_VAR} syntax)
	Languages []string `mapstructure:"languages" yaml:"languages,omitempty"`       // OCR languages (for tesseract)
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default engine selections and pipeline behavior.
type DefaultsCfg struct {
	PrimaryEngine   string `mapstructure:"primary_engine" yaml:"primary_engine"`     // Engine used for every field
	SecondaryEngine string `mapstructure:"secondary_engine" yaml:"secondary_engine"` // Optional cross-check engine
	Template        string `mapstructure:"template" yaml:"template"`                 // Fixed template name; empty means auto-detect
	MaxWorkers      int    `mapstructure:"max_workers" yaml:"max_workers"`           // Max concurrent field extractions
}

// ServerCfg holds the HTTP API server configuration.
type ServerCfg struct {
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Engines: map[string]EngineCfg{
			"mini": {
				Type:    "vision",
				Model:   "gpt-4.1-mini",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
			"nano": {
				Type:    "vision",
				Model:   "gpt-4.1-nano",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
		},
		Defaults: DefaultsCfg{
			PrimaryEngine:   "mini",
			SecondaryEngine: "nano",
			MaxWorkers:      4,
		},
		Server: ServerCfg{
			Port: "8585",
		},
	}
}

// GetEngine returns an engine config by name.
func (c *Config) GetEngine(name string) (EngineCfg, bool) {
	cfg, ok := c.Engines[name]
	return cfg, ok
}

// EnabledEngines returns all enabled engines.
func (c *Config) EnabledEngines() map[string]EngineCfg {
	result := make(map[string]EngineCfg)
	for name, cfg := range c.Engines {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
