package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, 10, cfg.Model.MaxModelCalls)
	assert.Equal(t, 10, cfg.Model.HistoryWindow)
	assert.Equal(t, 500, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 50, cfg.Retrieval.ChunkOverlap)
	assert.InDelta(t, 0.78, cfg.Retrieval.MatchThreshold, 1e-9)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 5*time.Hour, cfg.Tools.MacroCacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
model:
  provider: anthropic
  name: claude-3-5-sonnet-latest
retrieval:
  chunk_size: 256
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.Model.Name)
	assert.Equal(t, 256, cfg.Retrieval.ChunkSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched fields keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 50, cfg.Retrieval.ChunkOverlap)
}

func TestLoadExpandsRelativeDatabasePath(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: ./data/finagent.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data/finagent.db"), cfg.Storage.DatabasePath)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "env-tavily")
	t.Setenv("ALPHA_VANTAGE", "env-alpha")
	t.Setenv("FINAGENT_API_KEY", "env-server")
	t.Setenv("OPENAI_API_KEY", "env-openai")

	path := writeConfig(t, `
server:
  api_key: file-server
tools:
  tavily_api_key: file-tavily
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-tavily", cfg.Tools.TavilyAPIKey)
	assert.Equal(t, "env-alpha", cfg.Tools.AlphaVantageAPIKey)
	assert.Equal(t, "env-server", cfg.Server.APIKey)
	assert.Equal(t, "env-openai", cfg.Model.APIKey)
}

func TestAnthropicKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	path := writeConfig(t, `
model:
  provider: anthropic
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-anthropic", cfg.Model.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
