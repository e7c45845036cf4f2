// Package config loads service configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Engine   EngineConfig   `yaml:"engine"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds"`
}

// EngineConfig holds the completion engine settings.
type EngineConfig struct {
	Provider       string  `yaml:"provider"` // gemini or mock
	APIKey         string  `yaml:"-"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	TopP           float64 `yaml:"top_p"`
	TopK           int     `yaml:"top_k"`
	MaxTokens      int     `yaml:"max_tokens"`
	RequestTimeout int     `yaml:"request_timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
}

// PipelineConfig holds analysis pipeline settings.
type PipelineConfig struct {
	Strategy        string `yaml:"strategy"` // consolidated or per_concern
	MaxBatchSize    int    `yaml:"max_batch_size"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	CacheMaxEntries int    `yaml:"cache_max_entries"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL     string `yaml:"-"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 60,
		},
		Engine: EngineConfig{
			Provider:       "gemini",
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
			Model:          "gemini-2.0-flash",
			Temperature:    0.7,
			TopP:           0.95,
			TopK:           40,
			MaxTokens:      2048,
			RequestTimeout: 30,
			MaxRetries:     3,
		},
		Pipeline: PipelineConfig{
			Strategy:        "consolidated",
			MaxBatchSize:    20,
			CacheTTLSeconds: 300,
			CacheMaxEntries: 512,
		},
		Database: DatabaseConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. A .env file is honored when present, then
// the YAML file named by CONFIG_PATH, then individual environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setInt(&cfg.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	setInt(&cfg.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")

	setString(&cfg.Engine.Provider, "ENGINE_PROVIDER")
	setString(&cfg.Engine.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Engine.BaseURL, "ENGINE_BASE_URL")
	setString(&cfg.Engine.Model, "ENGINE_MODEL")
	setFloat(&cfg.Engine.Temperature, "ENGINE_TEMPERATURE")
	setFloat(&cfg.Engine.TopP, "ENGINE_TOP_P")
	setInt(&cfg.Engine.TopK, "ENGINE_TOP_K")
	setInt(&cfg.Engine.MaxTokens, "ENGINE_MAX_TOKENS")
	setInt(&cfg.Engine.RequestTimeout, "ENGINE_REQUEST_TIMEOUT")
	setInt(&cfg.Engine.MaxRetries, "ENGINE_MAX_RETRIES")

	setString(&cfg.Pipeline.Strategy, "PIPELINE_STRATEGY")
	setInt(&cfg.Pipeline.MaxBatchSize, "PIPELINE_MAX_BATCH_SIZE")
	setInt(&cfg.Pipeline.CacheTTLSeconds, "PIPELINE_CACHE_TTL")
	setInt(&cfg.Pipeline.CacheMaxEntries, "PIPELINE_CACHE_MAX_ENTRIES")

	setString(&cfg.Database.URL, "DATABASE_URL")
	if cfg.Database.URL != "" {
		cfg.Database.Enabled = true
	}
	setBool(&cfg.Database.Enabled, "DATABASE_ENABLED")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Engine.Provider {
	case "gemini":
		if c.Engine.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown engine provider: %q", c.Engine.Provider)
	}

	switch c.Pipeline.Strategy {
	case "consolidated", "per_concern":
	default:
		return fmt.Errorf("unknown pipeline strategy: %q", c.Pipeline.Strategy)
	}

	if c.Pipeline.MaxBatchSize < 1 {
		return fmt.Errorf("pipeline max batch size must be positive, got %d", c.Pipeline.MaxBatchSize)
	}

	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when the database is enabled")
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}
