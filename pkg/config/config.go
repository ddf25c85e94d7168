// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// LLM modes.
const (
	LLMMock   = "mock"
	LLMOllama = "ollama"
)

// Config holds server configuration.
type Config struct {
	Port     string
	LogLevel string

	StoreBackend string
	SQLitePath   string
	DatabaseURL  string

	LLMMode       string
	OllamaBaseURL string
	OllamaModel   string

	// CatalogPath optionally points at a YAML action catalog override.
	CatalogPath string

	OTLPEndpoint string
}

// Load reads configuration from environment variables, applying
// defaults. It fails on values that name an unknown backend or mode.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getenv("PORT", "8001"),
		LogLevel:      getenv("LOG_LEVEL", "INFO"),
		StoreBackend:  getenv("STORE_BACKEND", StoreMemory),
		SQLitePath:    getenv("SQLITE_PATH", "jarvis.db"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LLMMode:       getenv("LLM_MODE", LLMMock),
		OllamaBaseURL: getenv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getenv("OLLAMA_MODEL", "llama3.1"),
		CatalogPath:   os.Getenv("ACTION_CATALOG_PATH"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	switch cfg.StoreBackend {
	case StoreMemory, StoreSQLite, StorePostgres:
	default:
		return nil, fmt.Errorf("config: unknown store backend %q", cfg.StoreBackend)
	}
	if cfg.StoreBackend == StorePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required for the postgres backend")
	}

	switch cfg.LLMMode {
	case LLMMock, LLMOllama:
	default:
		return nil, fmt.Errorf("config: unknown llm mode %q", cfg.LLMMode)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
