// Package api provides the HTTP REST API for the chatbot backend.
//
// Endpoints:
//
//	POST   /api/chat                                  chat with the bot
//	GET    /api/history/{sessionId}                   read a session's turns
//	DELETE /api/history/{sessionId}                   delete a session
//	DELETE /api/history/{sessionId}/turns/{turnId}    delete a single turn
//	GET    /health                                    liveness probe
//	GET    /ready                                     readiness probe
//
// File structure:
//   - server.go: server setup and lifecycle
//   - middleware.go: recovery, rate limiting, logging
//   - chat.go: chat endpoint
//   - history.go: history endpoints
//   - health.go: health probes
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/btvvardhan/chatbot-backend/internal/history"
	"github.com/btvvardhan/chatbot-backend/internal/log"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads (Slowloris protection).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation calls dominate, so this is generous.
	WriteTimeout = 2 * time.Minute

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 2 * time.Minute
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger  log.Logger
	Chat    ChatService   // required
	History history.Store // required

	// Ready is called by the readiness probe; nil means always ready.
	Ready func(ctx context.Context) error

	// RateBurst is the token-bucket burst for the process-wide rate limiter
	// (refill 1/sec). Zero means the default of 60.
	RateBurst int
}

// Server is the HTTP server for the chatbot REST API.
type Server struct {
	mux     *http.ServeMux
	logger  log.Logger
	limiter *rate.Limiter
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Chat == nil {
		return nil, errors.New("chat service is required")
	}
	if cfg.History == nil {
		return nil, errors.New("history store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}

	mux := http.NewServeMux()

	ch := &ChatHandler{chat: cfg.Chat, logger: logger}
	ch.RegisterRoutes(mux)

	hh := &HistoryHandler{store: cfg.History, logger: logger}
	hh.RegisterRoutes(mux)

	health := &HealthHandler{ready: cfg.Ready, logger: logger}
	health.RegisterRoutes(mux)

	return &Server{
		mux:     mux,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(1), burst),
	}, nil
}

// Handler returns the HTTP handler with middleware applied.
// Order: recovery → rate limit → logging → mux.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		rateLimitMiddleware(s.limiter),
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
