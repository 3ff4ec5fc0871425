package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8602, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.MaxK)
	assert.Equal(t, 1000, cfg.Store.ChunkSize)
	assert.Equal(t, 200, cfg.Store.ChunkOverlap)
	assert.Equal(t, "hash", cfg.Embedding.Provider)
	assert.Equal(t, "0 6 * * *", cfg.Ingest.RefreshSchedule)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  max_k: 10
store:
  persist_dir: /tmp/briefd-test/vectors
  chunk_size: 500
  chunk_overlap: 100
embedding:
  provider: hash
  dimensions: 256
ingest:
  sources:
    - https://example.com/markets
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.MaxK)
	assert.Equal(t, "/tmp/briefd-test/vectors", cfg.Store.PersistDir)
	assert.Equal(t, 500, cfg.Store.ChunkSize)
	assert.Equal(t, 100, cfg.Store.ChunkOverlap)
	assert.Equal(t, 256, cfg.Embedding.Dimensions)
	assert.Equal(t, []string{"https://example.com/markets"}, cfg.Ingest.Sources)
	// Unset fields still get defaults.
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [not a map"))
	require.Error(t, err)
}

func TestAPIKeyEnvExpansion(t *testing.T) {
	t.Setenv("BRIEFD_TEST_KEY", "sk-secret")
	path := writeConfig(t, `
embedding:
  provider: openai
  api_key: ${BRIEFD_TEST_KEY}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.Embedding.APIKey)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "sentencepiece"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsOpenAIWithoutKey(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "openai"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsOverlapNotSmallerThanChunkSize(t *testing.T) {
	cfg := Default()
	cfg.Store.ChunkSize = 100
	cfg.Store.ChunkOverlap = 100
	require.Error(t, cfg.Validate())
}
