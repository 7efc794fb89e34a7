// Package config provides configuration loading for the finagent server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Model     ModelConfig     `yaml:"model"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Tools     ToolsConfig     `yaml:"tools"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// APIKey guards the chat endpoint when non-empty. Overridable via the
	// FINAGENT_API_KEY environment variable.
	APIKey string `yaml:"api_key"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds the SQLite database path shared by sessions and the
// document index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ModelConfig selects and tunes the reasoner.
type ModelConfig struct {
	// Provider is "openai" or "anthropic".
	Provider string `yaml:"provider"`
	// Name overrides the provider's default model.
	Name string `yaml:"name"`
	// APIKey is usually left empty and taken from OPENAI_API_KEY or
	// ANTHROPIC_API_KEY instead.
	APIKey        string  `yaml:"api_key"`
	Temperature   float64 `yaml:"temperature"`
	MaxModelCalls int     `yaml:"max_model_calls"`
	HistoryWindow int     `yaml:"history_window"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	CacheSize int    `yaml:"cache_size"`
}

// RetrievalConfig holds chunking and search settings.
type RetrievalConfig struct {
	ChunkSize      int     `yaml:"chunk_size"`
	ChunkOverlap   int     `yaml:"chunk_overlap"`
	MatchThreshold float64 `yaml:"match_threshold"`
	TopK           int     `yaml:"top_k"`
	// PreloadDir is scanned for documents indexed at startup.
	PreloadDir string `yaml:"preload_dir"`
}

// ToolsConfig holds external capability settings. API keys default to the
// TAVILY_API_KEY and ALPHA_VANTAGE (or ALPHA_VANTAGE_API_KEY) environment
// variables.
type ToolsConfig struct {
	TavilyAPIKey       string        `yaml:"tavily_api_key"`
	AlphaVantageAPIKey string        `yaml:"alpha_vantage_api_key"`
	Timeout            time.Duration `yaml:"timeout"`
	MacroCacheTTL      time.Duration `yaml:"macro_cache_ttl"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	applyEnv(cfg)
	return cfg
}

// Load reads and parses the config file at path, applies defaults, expands
// storage paths, and overlays environment variables. Returns an error if the
// file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Retrieval.PreloadDir != "" {
		cfg.Retrieval.PreloadDir = expandPath(cfg.Retrieval.PreloadDir, configDir)
	}

	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields with working defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./finagent.db"
	}
	if cfg.Model.Provider == "" {
		cfg.Model.Provider = "openai"
	}
	if cfg.Model.Temperature == 0 {
		cfg.Model.Temperature = 0.4
	}
	if cfg.Model.MaxModelCalls == 0 {
		cfg.Model.MaxModelCalls = 10
	}
	if cfg.Model.HistoryWindow == 0 {
		cfg.Model.HistoryWindow = 10
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1024
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 500
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 50
	}
	if cfg.Retrieval.MatchThreshold == 0 {
		cfg.Retrieval.MatchThreshold = 0.78
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Tools.Timeout == 0 {
		cfg.Tools.Timeout = 30 * time.Second
	}
	if cfg.Tools.MacroCacheTTL == 0 {
		cfg.Tools.MacroCacheTTL = 5 * time.Hour
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// applyEnv overlays secrets from the environment. Environment values win
// over file values so keys stay out of config files.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FINAGENT_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	switch cfg.Model.Provider {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.Model.APIKey = v
		}
	default:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.Model.APIKey = v
		}
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		cfg.Tools.TavilyAPIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE"); v != "" {
		cfg.Tools.AlphaVantageAPIKey = v
	} else if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.Tools.AlphaVantageAPIKey = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are left untouched.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	return path
}
