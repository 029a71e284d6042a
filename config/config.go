// Package config loads application configuration from a YAML file and
// environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Provider names accepted by generator.provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config is the full application configuration.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	Generator GeneratorConfig `mapstructure:"generator"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Store     StoreConfig     `mapstructure:"store"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
}

// GeneratorConfig selects and configures the model provider.
type GeneratorConfig struct {
	Provider  string `mapstructure:"provider"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// EmbeddingConfig configures the embeddings endpoint.
type EmbeddingConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BatchSize int    `mapstructure:"batch_size"`
}

// StoreConfig configures the vector store.
type StoreConfig struct {
	Path                string  `mapstructure:"path"`
	MaxResults          int     `mapstructure:"max_results"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

// IngestConfig configures document chunking.
type IngestConfig struct {
	DocsDir      string `mapstructure:"docs_dir"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
}

// SessionsConfig configures conversation history.
type SessionsConfig struct {
	MaxHistory int `mapstructure:"max_history"`
}

// GatewayConfig configures the HTTP API.
type GatewayConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address.
func (g GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// Load reads configuration from path, falling back to defaults and
// COURSECHAT_* environment variables. Path may be empty, in which case
// only defaults and the environment apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COURSECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("generator.provider", ProviderAnthropic)
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.model", "")
	v.SetDefault("generator.max_tokens", 800)
	v.SetDefault("embedding.base_url", "https://api.openai.com")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.batch_size", 16)
	v.SetDefault("store.path", "coursechat.db")
	v.SetDefault("store.max_results", 5)
	v.SetDefault("store.similarity_threshold", 0.3)
	v.SetDefault("ingest.docs_dir", "docs")
	v.SetDefault("ingest.chunk_size", 800)
	v.SetDefault("ingest.chunk_overlap", 100)
	v.SetDefault("sessions.max_history", 2)
	v.SetDefault("gateway.host", "127.0.0.1")
	v.SetDefault("gateway.port", 8000)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the loaded configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Generator.Provider {
	case ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("generator.provider must be %q or %q, got %q",
			ProviderAnthropic, ProviderGemini, c.Generator.Provider)
	}
	if c.Generator.MaxTokens <= 0 {
		return fmt.Errorf("generator.max_tokens must be positive")
	}
	if c.Store.MaxResults <= 0 {
		return fmt.Errorf("store.max_results must be positive")
	}
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive")
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size)")
	}
	if c.Sessions.MaxHistory <= 0 {
		return fmt.Errorf("sessions.max_history must be positive")
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port must be a valid port, got %d", c.Gateway.Port)
	}
	return nil
}

// expandEnvStrings expands ${VAR} references so API keys can live in
// the environment while the config file stays committable.
func expandEnvStrings(c *Config) {
	c.Generator.APIKey = os.ExpandEnv(c.Generator.APIKey)
	c.Embedding.APIKey = os.ExpandEnv(c.Embedding.APIKey)
	c.Embedding.BaseURL = os.ExpandEnv(c.Embedding.BaseURL)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
	c.Ingest.DocsDir = os.ExpandEnv(c.Ingest.DocsDir)
}

// NewLogger builds the application logger from the configured level
// and format.
func NewLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
