package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/btvvardhan/chatbot-backend/internal/log"
)

// debounceDelay coalesces bursts of filesystem events (editors often write a
// file several times in quick succession) into a single reload.
const debounceDelay = 500 * time.Millisecond

// Watcher re-ingests the corpus when files in the corpus directory change.
// It is the explicit opt-in exception to the corpus-is-immutable rule and is
// only started by `ingest --watch`.
type Watcher struct {
	ingestor *Ingestor
	logger   log.Logger
}

// NewWatcher creates a Watcher over the given ingestor.
func NewWatcher(ingestor *Ingestor, logger log.Logger) *Watcher {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Watcher{ingestor: ingestor, logger: logger}
}

// Watch blocks, reloading the corpus whenever a supported file is created,
// written, removed or renamed, until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.ingestor.corpusDir); err != nil {
		return fmt.Errorf("watching %s: %w", w.ingestor.corpusDir, err)
	}
	w.logger.Info("watching corpus directory", "dir", w.ingestor.corpusDir)

	var debounce *time.Timer
	var reload <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isSupportedFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("corpus change detected", "path", event.Name, "op", event.Op.String())
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
			} else {
				debounce.Reset(debounceDelay)
			}
			reload = debounce.C

		case <-reload:
			reload = nil
			if err := w.ingestor.Reload(ctx); err != nil {
				w.logger.Error("corpus reload failed", "error", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
