// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.chatbot/config.yaml or ./config.yaml)
//  3. Default values
//
// Sensitive data (API key, database password) is masked in MarshalJSON and
// never logged. Validation is fail-fast with sentinel errors checked via
// errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the Gemini API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidChunkGeometry indicates chunk size/overlap are inconsistent.
	ErrInvalidChunkGeometry = errors.New("invalid chunk geometry")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidHistoryBackend indicates an unknown history backend.
	ErrInvalidHistoryBackend = errors.New("invalid history backend")

	// ErrInvalidHistoryBounds indicates history cap/window are out of range.
	ErrInvalidHistoryBounds = errors.New("invalid history bounds")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// History backend identifiers used in Config.HistoryBackend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

const (
	// DefaultModelName is the default Gemini generation model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel is the default Gemini embedding model.
	// The same model embeds documents and queries, which keeps vector
	// dimensionality consistent across the store.
	DefaultEmbedderModel = "text-embedding-004"

	// DefaultHistoryCap is the maximum number of turns persisted per session.
	// Older turns are silently dropped.
	DefaultHistoryCap = 40

	// DefaultHistoryWindow is the number of recent turns included in a prompt,
	// independent of the persisted cap.
	DefaultHistoryWindow = 10
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON().
type Config struct {
	// Gemini configuration
	GeminiAPIKey  string `mapstructure:"gemini_api_key" json:"gemini_api_key"` // SENSITIVE: masked in MarshalJSON
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	SystemPrompt  string `mapstructure:"system_prompt" json:"system_prompt"`

	// Retrieval configuration
	CorpusDir    string `mapstructure:"corpus_dir" json:"corpus_dir"`
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	TopK         int    `mapstructure:"top_k" json:"top_k"`

	// Conversation history configuration
	HistoryBackend string `mapstructure:"history_backend" json:"history_backend"` // "memory" (default) or "postgres"
	HistoryCap     int    `mapstructure:"history_cap" json:"history_cap"`
	HistoryWindow  int    `mapstructure:"history_window" json:"history_window"`

	// HTTP server configuration
	Addr      string `mapstructure:"addr" json:"addr"`
	RateBurst int    `mapstructure:"rate_burst" json:"rate_burst"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	v := viper.New()

	// Configuration directory: ~/.chatbot/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".chatbot")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // also support current directory

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing configuration file is not an error, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has highest priority for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("system_prompt",
		"You are a helpful assistant. Answer using the provided context when it is relevant; otherwise answer from general knowledge.")

	v.SetDefault("corpus_dir", "./documents")
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 150)
	v.SetDefault("top_k", 4)

	v.SetDefault("history_backend", BackendMemory)
	v.SetDefault("history_cap", DefaultHistoryCap)
	v.SetDefault("history_window", DefaultHistoryWindow)

	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("rate_burst", 60)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "chatbot")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_db_name", "chatbot")
	v.SetDefault("postgres_ssl_mode", "prefer")
}

func bindEnvVariables(v *viper.Viper) {
	v.SetEnvPrefix("CHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// GEMINI_API_KEY is the conventional name for the Gemini key, without the
	// application prefix.
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY", "CHATBOT_GEMINI_API_KEY")
}

// Validate checks configuration consistency. It does not require the API key;
// commands that call the Gemini API must additionally call ValidateAPIKey.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunkGeometry, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be in [0, chunk_size)", ErrInvalidChunkGeometry, c.ChunkOverlap)
	}
	if c.TopK <= 0 || c.TopK > 100 {
		return fmt.Errorf("%w: top_k %d must be in [1, 100]", ErrInvalidTopK, c.TopK)
	}

	switch c.HistoryBackend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("%w: %q (expected %q or %q)",
			ErrInvalidHistoryBackend, c.HistoryBackend, BackendMemory, BackendPostgres)
	}
	if c.HistoryCap <= 0 {
		return fmt.Errorf("%w: history_cap must be positive, got %d", ErrInvalidHistoryBounds, c.HistoryCap)
	}
	if c.HistoryWindow <= 0 || c.HistoryWindow > c.HistoryCap {
		return fmt.Errorf("%w: history_window %d must be in [1, history_cap]", ErrInvalidHistoryBounds, c.HistoryWindow)
	}

	if c.HistoryBackend == BackendPostgres {
		if err := c.validatePostgres(); err != nil {
			return err
		}
	}

	return nil
}

// ValidateAPIKey verifies the Gemini API key is present. Called by commands
// that perform model calls (serve, ask, ingest) before any external request.
func (c *Config) ValidateAPIKey() error {
	if c == nil {
		return ErrConfigNil
	}
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
	}
	return nil
}

func (c *Config) validatePostgres() error {
	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: port %d must be in [1, 65535]", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}
	switch c.PostgresSSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}
	return nil
}

// MarshalJSON masks sensitive fields so the config can be logged safely.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	masked := alias(*c)
	if masked.GeminiAPIKey != "" {
		masked.GeminiAPIKey = "***"
	}
	if masked.PostgresPassword != "" {
		masked.PostgresPassword = "***"
	}
	return json.Marshal(masked)
}
