package cmd

import (
	"context"
	"fmt"

	"github.com/btvvardhan/chatbot-backend/internal/chat"
	"github.com/btvvardhan/chatbot-backend/internal/config"
	"github.com/btvvardhan/chatbot-backend/internal/database"
	"github.com/btvvardhan/chatbot-backend/internal/gemini"
	"github.com/btvvardhan/chatbot-backend/internal/history"
	"github.com/btvvardhan/chatbot-backend/internal/log"
	"github.com/btvvardhan/chatbot-backend/internal/rag"
)

// app holds the wired application components shared by serve, ask and ingest.
type app struct {
	Config    *config.Config
	Gemini    *gemini.Client
	Store     *rag.Store
	Ingestor  *rag.Ingestor
	Retriever *rag.Retriever
	History   history.Store
	Chat      *chat.Service

	// Ready probes the history backend; nil for the memory backend.
	Ready func(ctx context.Context) error

	closeFn func()
}

// Close releases held resources (the database pool, when open).
func (a *app) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// setup builds the full dependency graph from configuration. The API key is
// validated here, before any external call.
func setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*app, error) {
	if err := cfg.ValidateAPIKey(); err != nil {
		return nil, err
	}

	client, err := gemini.NewClient(gemini.Config{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.ModelName,
		EmbedModel: cfg.EmbedderModel,
		Logger:     logger.With("component", "gemini"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	store := rag.NewStore()
	ingestor := rag.NewIngestor(rag.IngestorConfig{
		Store:        store,
		Embedder:     client,
		CorpusDir:    cfg.CorpusDir,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Logger:       logger.With("component", "ingest"),
	})
	retriever := rag.NewRetriever(store, client)

	a := &app{
		Config:    cfg,
		Gemini:    client,
		Store:     store,
		Ingestor:  ingestor,
		Retriever: retriever,
	}

	switch cfg.HistoryBackend {
	case config.BackendPostgres:
		if err := database.Migrate(cfg.MigrateURL()); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		pool, err := database.Open(ctx, cfg.PostgresConnectionString())
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		pg := history.NewPostgresStore(pool, cfg.HistoryCap, logger.With("component", "history"))
		a.History = pg
		a.Ready = pg.Ping
		a.closeFn = pool.Close
	default:
		a.History = history.NewMemoryStore(cfg.HistoryCap)
	}

	svc, err := chat.New(chat.Config{
		Generator:     client,
		Retriever:     retriever,
		Ingestor:      ingestor,
		History:       a.History,
		Logger:        logger.With("component", "chat"),
		SystemPrompt:  cfg.SystemPrompt,
		TopK:          cfg.TopK,
		HistoryWindow: cfg.HistoryWindow,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating chat service: %w", err)
	}
	a.Chat = svc

	return a, nil
}
