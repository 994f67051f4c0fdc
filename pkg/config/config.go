// Package config loads engine configuration from config.yaml with
// environment variable overrides. Secrets come from the environment only.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for datalens-engine.
// Environment variables always override YAML values. Secrets (PGPASSWORD,
// LLM_API_KEY) are env-only (yaml:"-" fields).
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// DatabaseConfig holds PostgreSQL configuration for the engine database.
// Tenant namespaces (schemas named user_<id>) live in this same cluster.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"datalens"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"datalens_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	// Provider is "openai" for any OpenAI-compatible endpoint, or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML

	// Temperature for SQL and classification calls. Free-text report stages
	// use TextTemperature.
	Temperature     float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0"`
	TextTemperature float64 `yaml:"text_temperature" env:"LLM_TEXT_TEMPERATURE" env-default:"0.4"`
}

// AnalysisConfig tunes the query path and the deep-analysis pipeline.
type AnalysisConfig struct {
	// SampleRowLimit is how many rows of each table are shown to the model.
	SampleRowLimit int `yaml:"sample_row_limit" env:"ANALYSIS_SAMPLE_ROW_LIMIT" env-default:"5"`
	// ChartRowLimit bounds the rows sent to the chart synthesizer.
	ChartRowLimit int `yaml:"chart_row_limit" env:"ANALYSIS_CHART_ROW_LIMIT" env-default:"50"`
	// MaxBatchConcurrency bounds concurrent batch query execution.
	MaxBatchConcurrency int `yaml:"max_batch_concurrency" env:"ANALYSIS_MAX_BATCH_CONCURRENCY" env-default:"4"`
	// StylesPath points at the report style definitions.
	StylesPath string `yaml:"styles_path" env:"ANALYSIS_STYLES_PATH" env-default:"styles.yaml"`
}

// Load reads configuration from config.yaml with environment overrides.
// The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Analysis.SampleRowLimit <= 0 {
		return fmt.Errorf("sample_row_limit must be positive")
	}
	if c.Analysis.ChartRowLimit <= 0 {
		return fmt.Errorf("chart_row_limit must be positive")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string for the engine DB.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
