// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	CaseBase   CaseBaseConfig   `mapstructure:"case_base"`
	Ontology   OntologyConfig   `mapstructure:"ontology"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	AI         AIConfig         `mapstructure:"ai"`
	Adaptation AdaptationConfig `mapstructure:"adaptation"`
	Retention  RetentionConfig  `mapstructure:"retention"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	Seed        int64  `mapstructure:"seed"`
}

// CaseBaseConfig selects and locates the case-base store.
type CaseBaseConfig struct {
	// Driver is "file" for the JSON store or "sqlite" for the database.
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// OntologyConfig locates the reference tables.
type OntologyConfig struct {
	Dir string `mapstructure:"dir"`
}

// EmbeddingConfig locates the ingredient vector store.
type EmbeddingConfig struct {
	Path string `mapstructure:"path"`
}

// AIConfig contains the presentation service configuration.
type AIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AdaptationConfig tunes the ingredient adapter.
type AdaptationConfig struct {
	// Strategy selects the style adaptation path: "latent" or "categorical".
	Strategy        string  `mapstructure:"strategy"`
	Temperature     float64 `mapstructure:"temperature"`
	Intensity       float64 `mapstructure:"intensity"`
	MaxFillIns      int     `mapstructure:"max_fill_ins"`
	CandidateWindow int     `mapstructure:"candidate_window"`
}

// RetentionConfig tunes the retention gates.
type RetentionConfig struct {
	NoveltyAlpha float64 `mapstructure:"novelty_alpha"`
	Gamma        float64 `mapstructure:"gamma"`
	UtilityFloor float64 `mapstructure:"utility_floor"`
}

// Load reads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/convivio")
	}

	v.SetEnvPrefix("CONVIVIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Convivio")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("app.seed", 0)

	// Case base defaults
	v.SetDefault("case_base.driver", "file")
	v.SetDefault("case_base.path", "data/casebase.json")

	// Ontology defaults
	v.SetDefault("ontology.dir", "data/ontology")

	// Embedding defaults
	v.SetDefault("embedding.path", "data/embeddings.json")

	// AI defaults
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", "30s")

	// Adaptation defaults
	v.SetDefault("adaptation.strategy", "latent")
	v.SetDefault("adaptation.temperature", 0.3)
	v.SetDefault("adaptation.intensity", 0.5)
	v.SetDefault("adaptation.max_fill_ins", 2)
	v.SetDefault("adaptation.candidate_window", 12)

	// Retention defaults
	v.SetDefault("retention.novelty_alpha", 0.5)
	v.SetDefault("retention.gamma", 0.08)
	v.SetDefault("retention.utility_floor", 0.55)
}

// Validate checks the configuration for correctness
func (c *Config) Validate() error {
	switch c.CaseBase.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown case_base.driver %q", c.CaseBase.Driver)
	}
	if c.CaseBase.Path == "" {
		return fmt.Errorf("case_base.path is required")
	}
	if c.Ontology.Dir == "" {
		return fmt.Errorf("ontology.dir is required")
	}
	if c.Embedding.Path == "" {
		return fmt.Errorf("embedding.path is required")
	}
	switch c.Adaptation.Strategy {
	case "latent", "categorical":
	default:
		return fmt.Errorf("unknown adaptation.strategy %q", c.Adaptation.Strategy)
	}
	if c.Adaptation.Intensity < 0 || c.Adaptation.Intensity > 1 {
		return fmt.Errorf("adaptation.intensity must be in [0,1]")
	}
	if c.Adaptation.Temperature < 0 {
		return fmt.Errorf("adaptation.temperature must not be negative")
	}
	if c.Retention.Gamma < 0 || c.Retention.Gamma > 1 {
		return fmt.Errorf("retention.gamma must be in [0,1]")
	}
	if c.Retention.UtilityFloor < 0 {
		return fmt.Errorf("retention.utility_floor must not be negative")
	}
	return nil
}

// IsDevelopment returns true when running in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
