package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/datachat-ai/datachat/internal/charts"
	"github.com/datachat-ai/datachat/internal/classifier"
	"github.com/datachat-ai/datachat/internal/config"
	"github.com/datachat-ai/datachat/internal/db"
	"github.com/datachat-ai/datachat/internal/embeddings"
	"github.com/datachat-ai/datachat/internal/handlers"
	"github.com/datachat-ai/datachat/internal/ingest"
	"github.com/datachat-ai/datachat/internal/llm"
	"github.com/datachat-ai/datachat/internal/memory"
	"github.com/datachat-ai/datachat/internal/orchestrator"
	"github.com/datachat-ai/datachat/internal/progress"
	"github.com/datachat-ai/datachat/internal/rag"
	"github.com/datachat-ai/datachat/internal/reconstruct"
	"github.com/datachat-ai/datachat/internal/vectordb"
)

// app bundles the wired pipeline shared by the ask, serve and mcp commands.
type app struct {
	cfg      *config.Config
	database *db.DB
	mem      *memory.Manager
	embedder embeddings.Embedder
	store    *vectordb.ChromemStore
	chat     *llm.Client
	orch     *orchestrator.Orchestrator
	ing      *ingest.Ingestor
	logger   *slog.Logger
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `datachat init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger writes structured logs to stderr; stdout stays clean for
// command output and MCP protocol messages.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func memoryDBPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "memory.db")
}

func vectorDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "vectordb")
}

// buildApp wires the full pipeline. Loading the vector store is best effort:
// a missing index is reported as the empty-index refusal at query time, not
// a startup failure.
func buildApp(ctx context.Context, reporter progress.Reporter) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger()

	database, err := db.Open(memoryDBPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening memory database: %w", err)
	}

	mem := memory.NewManager(memory.NewStore(database), cfg.Memory)

	embedder, err := embeddings.NewFromConfig(cfg.Embedding)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := store.Load(ctx, vectorDir(cfg)); err != nil {
		logger.Warn("vector store not loaded, index is empty", "dir", vectorDir(cfg), "error", err)
	}

	chat, err := llm.NewClientFromConfig(cfg.Chat)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}

	recon := reconstruct.New(store, logger)
	renderer := charts.NewRenderer(cfg.OutputDir)
	registry := handlers.NewRegistry(recon, renderer, cfg, logger)
	cls := classifier.New(ctx, embedder, logger)
	answerer := rag.NewAnswerer(store, embedder, chat, mem, cfg, logger)
	orch := orchestrator.New(store, mem, cls, registry, answerer, chat, embedder, cfg, logger)
	ing := ingest.NewIngestor(cfg.Ingestion, embedder, store, reporter, logger)

	return &app{
		cfg:      cfg,
		database: database,
		mem:      mem,
		embedder: embedder,
		store:    store,
		chat:     chat,
		orch:     orch,
		ing:      ing,
		logger:   logger,
	}, nil
}

// persistIndex saves the vector store so later invocations see the index.
func (a *app) persistIndex(ctx context.Context) error {
	return a.store.Persist(ctx, vectorDir(a.cfg))
}

func (a *app) close() {
	a.database.Close()
}
