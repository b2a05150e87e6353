package rag

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/btvvardhan/chatbot-backend/internal/gemini"
	"github.com/btvvardhan/chatbot-backend/internal/log"
)

// Embedder turns text into a fixed-length vector. Defined here by the
// consumer; gemini.Client satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text, taskType string) ([]float32, error)
}

// IngestorConfig contains parameters for creating an Ingestor.
type IngestorConfig struct {
	Store        *Store
	Embedder     Embedder
	CorpusDir    string
	ChunkSize    int
	ChunkOverlap int
	Logger       log.Logger
}

// Ingestor populates the vector store from a document directory.
//
// EnsureIngested is idempotent and guarantees at most one ingestion pass per
// process: the mutex serializes callers and the done flag short-circuits
// every call after the first successful pass. A failed pass leaves done
// unset so a later request can retry.
type Ingestor struct {
	store        *Store
	embedder     Embedder
	corpusDir    string
	chunkSize    int
	chunkOverlap int
	logger       log.Logger

	mu   sync.Mutex
	done bool
}

// NewIngestor creates an Ingestor. Zero chunk geometry falls back to
// 1000/150.
func NewIngestor(cfg IngestorConfig) *Ingestor {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	chunkOverlap := cfg.ChunkOverlap
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 150
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	return &Ingestor{
		store:        cfg.Store,
		embedder:     cfg.Embedder,
		corpusDir:    cfg.CorpusDir,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// EnsureIngested runs the ingestion pass on first call and is a no-op
// afterwards. A missing corpus directory completes as a no-op success and
// leaves the store empty. Concurrent callers block until the single pass
// finishes.
func (ing *Ingestor) EnsureIngested(ctx context.Context) error {
	ing.mu.Lock()
	defer ing.mu.Unlock()

	if ing.done {
		return nil
	}

	chunks, err := ing.loadCorpus(ctx)
	if err != nil {
		return err
	}
	ing.store.Add(chunks...)
	ing.done = true

	ing.logger.Info("corpus ingested", "dir", ing.corpusDir, "chunks", len(chunks))
	return nil
}

// Reload re-runs the ingestion pass and replaces the store contents.
// Used by the corpus watcher; not part of the normal request path.
func (ing *Ingestor) Reload(ctx context.Context) error {
	ing.mu.Lock()
	defer ing.mu.Unlock()

	chunks, err := ing.loadCorpus(ctx)
	if err != nil {
		return err
	}
	ing.store.Replace(chunks)
	ing.done = true

	ing.logger.Info("corpus reloaded", "dir", ing.corpusDir, "chunks", len(chunks))
	return nil
}

// loadCorpus walks the corpus directory, chunking and embedding every
// supported file. Files that fail to read or parse are logged and skipped;
// an embedding failure aborts the pass. Chunks are embedded sequentially so
// the resulting store order is deterministic (WalkDir visits files in
// lexical order).
func (ing *Ingestor) loadCorpus(ctx context.Context) ([]EmbeddedChunk, error) {
	info, err := os.Stat(ing.corpusDir)
	if os.IsNotExist(err) {
		ing.logger.Debug("corpus directory absent, skipping ingestion", "dir", ing.corpusDir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", ing.corpusDir)
	}

	var embedded []EmbeddedChunk
	walkErr := filepath.WalkDir(ing.corpusDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ing.logger.Warn("skipping unreadable corpus entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !isSupportedFile(path) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		text, err := extractText(path)
		if err != nil {
			ing.logger.Warn("skipping corpus file", "path", path, "error", err)
			return nil
		}

		source := filepath.Base(path)
		for _, chunkText := range SplitText(text, ing.chunkSize, ing.chunkOverlap) {
			vec, err := ing.embedder.Embed(ctx, chunkText, gemini.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("embedding chunk of %s: %w", source, err)
			}
			embedded = append(embedded, EmbeddedChunk{
				Embedding: vec,
				Text:      chunkText,
				Source:    source,
			})
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return embedded, nil
}
