// Package config provides configuration loading and structs for briefd.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// MaxK caps the k parameter accepted by the retrieve endpoint.
	MaxK int `yaml:"max_k"`
}

// StoreConfig holds the vector store's persistence and chunking settings.
type StoreConfig struct {
	// PersistDir is the directory holding the store's durable state. When
	// empty it is derived from the data directory.
	PersistDir   string `yaml:"persist_dir"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "hash" (deterministic, offline, the default) or "openai".
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`

	// APIKey supports ${ENV_VAR} expansion.
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// IngestConfig holds upstream document source settings.
type IngestConfig struct {
	// WatchDir is a drop directory whose files get ingested automatically.
	WatchDir string `yaml:"watch_dir"`

	// Sources are article URLs re-scraped on the refresh schedule.
	Sources []string `yaml:"sources"`

	// RefreshSchedule is a cron expression for re-scraping Sources.
	// Defaults to 6am daily, in time for the morning brief.
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	cfg.Embedding.APIKey = expandEnv(cfg.Embedding.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults sets default values for any zero values in cfg.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8602
	}
	if cfg.Server.MaxK == 0 {
		cfg.Server.MaxK = 20
	}
	if cfg.Store.ChunkSize == 0 {
		cfg.Store.ChunkSize = 1000
	}
	if cfg.Store.ChunkOverlap == 0 {
		cfg.Store.ChunkOverlap = 200
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hash"
	}
	if cfg.Ingest.RefreshSchedule == "" {
		cfg.Ingest.RefreshSchedule = "0 6 * * *"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "hash":
	case "openai":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("config: embedding provider %q requires api_key", c.Embedding.Provider)
		}
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}

	if c.Store.ChunkOverlap >= c.Store.ChunkSize {
		return fmt.Errorf("config: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Store.ChunkOverlap, c.Store.ChunkSize)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.Server.MaxK < 1 {
		return fmt.Errorf("config: max_k must be at least 1")
	}
	return nil
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references with environment values.
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
