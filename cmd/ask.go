package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/btvvardhan/chatbot-backend/internal/config"
)

var askSession string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question",
	Long: `Ask sends a single question through the full pipeline (ingest, retrieve,
generate) and prints the reply. Without --session the exchange is not
persisted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "session ID for conversation history")
	rootCmd.AddCommand(askCmd)
}

func runAsk(question string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	reply, err := a.Chat.Reply(ctx, askSession, question)
	if err != nil {
		return err
	}

	fmt.Println(reply)
	return nil
}
