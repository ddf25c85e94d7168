// Command jarvisd runs the assistant backend: the permission gate, the
// tiered memory manager, the approval ledger and the skill library behind
// one HTTP API.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IvoFFaria/Jarvis-IA/pkg/api"
	"github.com/IvoFFaria/Jarvis-IA/pkg/approval"
	"github.com/IvoFFaria/Jarvis-IA/pkg/config"
	"github.com/IvoFFaria/Jarvis-IA/pkg/gate"
	"github.com/IvoFFaria/Jarvis-IA/pkg/llm"
	"github.com/IvoFFaria/Jarvis-IA/pkg/memory"
	"github.com/IvoFFaria/Jarvis-IA/pkg/observability"
	"github.com/IvoFFaria/Jarvis-IA/pkg/security"
	"github.com/IvoFFaria/Jarvis-IA/pkg/skills"
	"github.com/IvoFFaria/Jarvis-IA/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	docs, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	logger.Info("store ready", "backend", cfg.StoreBackend)

	catalog := security.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = security.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("catalog: %v", err)
		}
		logger.Info("action catalog override loaded", "path", cfg.CatalogPath)
	}

	var provider llm.Provider
	switch cfg.LLMMode {
	case config.LLMOllama:
		provider = llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel)
	default:
		provider = llm.NewMockProvider()
	}
	logger.Info("llm ready", "mode", cfg.LLMMode)

	obsCfg := observability.DefaultConfig()
	if cfg.OTLPEndpoint != "" {
		obsCfg.Enabled = true
		obsCfg.OTLPEndpoint = cfg.OTLPEndpoint
		obsCfg.Environment = "production"
	}
	obs, err := observability.New(ctx, obsCfg)
	if err != nil {
		log.Fatalf("observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	memoryMgr := memory.NewManager(docs)
	skillMgr := skills.NewManager(docs, catalog)

	server := api.NewServer(api.Deps{
		Gate:      gate.New(catalog),
		Memory:    memoryMgr,
		Extractor: memory.NewExtractor(memoryMgr, provider, skillMgr),
		Approvals: approval.NewLedger(docs),
		Skills:    skillMgr,
		Retriever: skills.NewRetriever(skillMgr, provider),
		Provider:  provider,
		Obs:       obs,
		LLMMode:   cfg.LLMMode,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func openStore(cfg *config.Config) (store.DocumentStore, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		return store.OpenSQLite(cfg.SQLitePath)
	case config.StorePostgres:
		return store.OpenPostgres(cfg.DatabaseURL)
	default:
		return store.NewMemoryStore(), nil
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
