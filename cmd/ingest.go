package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/btvvardhan/chatbot-backend/internal/config"
	"github.com/btvvardhan/chatbot-backend/internal/rag"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest the document corpus",
	Long: `Ingest chunks and embeds every supported document (.txt, .md, .pdf) in the
corpus directory and reports the result. With --watch it keeps running and
re-ingests whenever the corpus changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest()
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "watch the corpus directory and re-ingest on changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	a, err := setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	if err := a.Ingestor.EnsureIngested(ctx); err != nil {
		return fmt.Errorf("ingesting corpus: %w", err)
	}
	fmt.Printf("Ingested %d chunks from %s\n", a.Store.Len(), cfg.CorpusDir)

	if !ingestWatch {
		return nil
	}

	watcher := rag.NewWatcher(a.Ingestor, logger.With("component", "watcher"))
	return watcher.Watch(ctx)
}
