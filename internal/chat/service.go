// Package chat orchestrates one request: ensure the corpus is ingested,
// retrieve context, load recent history, assemble the prompt, call the
// generation model, and persist the exchange.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/btvvardhan/chatbot-backend/internal/history"
	"github.com/btvvardhan/chatbot-backend/internal/log"
	"github.com/btvvardhan/chatbot-backend/internal/prompt"
	"github.com/btvvardhan/chatbot-backend/internal/rag"
)

// ErrEmptyMessage indicates the user message is missing or blank.
var ErrEmptyMessage = errors.New("empty message")

// Generator produces a reply for an assembled prompt.
// gemini.Client satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// ContextRetriever returns the top-k context snippets for a query.
// rag.Retriever satisfies it.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]rag.Result, error)
}

// Ingestion guarantees the corpus has been ingested.
// rag.Ingestor satisfies it.
type Ingestion interface {
	EnsureIngested(ctx context.Context) error
}

// Config contains all required parameters for the Service.
type Config struct {
	Generator Generator
	Retriever ContextRetriever
	Ingestor  Ingestion
	History   history.Store
	Logger    log.Logger

	SystemPrompt  string
	TopK          int
	HistoryWindow int
}

func (cfg Config) validate() error {
	if cfg.Generator == nil {
		return errors.New("generator is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	if cfg.Ingestor == nil {
		return errors.New("ingestor is required")
	}
	if cfg.History == nil {
		return errors.New("history store is required")
	}
	return nil
}

// Service answers user messages. It is stateless apart from its injected
// dependencies and safe for concurrent use.
type Service struct {
	generator     Generator
	retriever     ContextRetriever
	ingestor      Ingestion
	historyStore  history.Store
	logger        log.Logger
	systemPrompt  string
	topK          int
	historyWindow int
}

// New creates a Service from the given configuration.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 4
	}
	window := cfg.HistoryWindow
	if window <= 0 {
		window = 10
	}

	return &Service{
		generator:     cfg.Generator,
		retriever:     cfg.Retriever,
		ingestor:      cfg.Ingestor,
		historyStore:  cfg.History,
		logger:        logger,
		systemPrompt:  cfg.SystemPrompt,
		topK:          topK,
		historyWindow: window,
	}, nil
}

// Reply answers a user message. When sessionID is empty the exchange is not
// persisted and no history is loaded. Failures before generation abort the
// request; a history write failure after a successful generation is logged
// but does not discard the reply.
func (s *Service) Reply(ctx context.Context, sessionID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	if err := s.ingestor.EnsureIngested(ctx); err != nil {
		return "", fmt.Errorf("ingesting corpus: %w", err)
	}

	results, err := s.retriever.Retrieve(ctx, message, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}
	snippets := make([]prompt.Snippet, len(results))
	for i, r := range results {
		snippets[i] = prompt.Snippet{Source: r.Chunk.Source, Text: r.Chunk.Text}
	}

	var turns []history.Turn
	if sessionID != "" {
		turns, err = s.historyStore.List(ctx, sessionID)
		if err != nil {
			return "", fmt.Errorf("loading history: %w", err)
		}
	}

	assembled := prompt.Assemble(prompt.Input{
		System:  s.systemPrompt,
		Context: snippets,
		History: turns,
		Message: message,
		Window:  s.historyWindow,
	})

	reply, err := s.generator.GenerateContent(ctx, assembled)
	if err != nil {
		return "", fmt.Errorf("generating reply: %w", err)
	}

	if sessionID != "" {
		appendErr := s.historyStore.Append(ctx, sessionID,
			history.Turn{Role: history.RoleUser, Text: message},
			history.Turn{Role: history.RoleBot, Text: reply},
		)
		if appendErr != nil {
			// The reply already exists; losing one history write is
			// preferable to failing the whole request.
			s.logger.Warn("failed to persist exchange",
				"session_id", sessionID, "error", appendErr)
		}
	}

	s.logger.Debug("reply generated",
		"session_id", sessionID,
		"context_snippets", len(snippets),
		"history_turns", len(turns),
		"reply_len", len(reply))
	return reply, nil
}
