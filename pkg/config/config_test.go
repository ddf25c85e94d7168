package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8001", cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, LLMMock, cfg.LLMMode)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaBaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", StoreSQLite)
	t.Setenv("SQLITE_PATH", "/tmp/test.db")
	t.Setenv("LLM_MODE", LLMOllama)
	t.Setenv("OLLAMA_MODEL", "mistral")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/test.db", cfg.SQLitePath)
	assert.Equal(t, "mistral", cfg.OllamaModel)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongodb")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store backend")
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("STORE_BACKEND", StorePostgres)
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://jarvis@localhost:5432/jarvis?sslmode=disable")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
}

func TestLoadRejectsUnknownLLMMode(t *testing.T) {
	t.Setenv("LLM_MODE", "gpt9")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm mode")
}
