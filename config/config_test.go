package config_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursechat/coursechat/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.ProviderAnthropic, cfg.Generator.Provider)
	assert.Equal(t, 800, cfg.Generator.MaxTokens)
	assert.Equal(t, 5, cfg.Store.MaxResults)
	assert.Equal(t, 800, cfg.Ingest.ChunkSize)
	assert.Equal(t, 100, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 2, cfg.Sessions.MaxHistory)
	assert.Equal(t, "127.0.0.1:8000", cfg.Gateway.Addr())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
generator:
  provider: gemini
  model: gemini-2.5-flash
store:
  path: /tmp/courses.db
  max_results: 3
gateway:
  port: 9000
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.ProviderGemini, cfg.Generator.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Generator.Model)
	assert.Equal(t, "/tmp/courses.db", cfg.Store.Path)
	assert.Equal(t, 3, cfg.Store.MaxResults)
	assert.Equal(t, 9000, cfg.Gateway.Port)

	// Unset keys keep their defaults.
	assert.Equal(t, 800, cfg.Generator.MaxTokens)
}

func TestLoadExpandsEnvInAPIKey(t *testing.T) {
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-test-123")
	path := writeConfig(t, `
generator:
  api_key: ${TEST_ANTHROPIC_KEY}
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", cfg.Generator.APIKey)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, "generator:\n  provider: openai\n")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator.provider")
}

func TestLoadRejectsBadChunking(t *testing.T) {
	path := writeConfig(t, "ingest:\n  chunk_size: 100\n  chunk_overlap: 100\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger := config.NewLogger("debug", "json")
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = config.NewLogger("warn", "text")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
