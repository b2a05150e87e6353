// Package cmd implements the chatbot CLI: a long-running HTTP server
// (serve), one-shot questions (ask), and corpus management (ingest).
package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/btvvardhan/chatbot-backend/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "chatbot",
	Short: "Retrieval-augmented chatbot backend",
	Long: `chatbot is a retrieval-augmented chatbot backend built on the Gemini API.

It answers user messages using semantically relevant snippets retrieved from a
local document corpus plus recent conversation history, and persists the
exchange in memory or PostgreSQL.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main. It loads a .env file when
// present and installs the default logger before dispatching commands.
func Execute() error {
	// A missing .env is fine; environment variables may be set directly.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.New(log.Config{Level: level}))

	return rootCmd.Execute()
}
