package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/btvvardhan/chatbot-backend/internal/history"
	"github.com/btvvardhan/chatbot-backend/internal/log"
)

func newHealthHandler(t *testing.T, ready func(ctx context.Context) error) http.Handler {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Logger:    log.NewNop(),
		Chat:      &fakeChat{},
		History:   history.NewMemoryStore(40),
		Ready:     ready,
		RateBurst: 1000,
	})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	return srv.Handler()
}

func TestHealth_Liveness(t *testing.T) {
	h := newHealthHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestHealth_ReadinessWithoutCheck(t *testing.T) {
	h := newHealthHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("nil ready check means always ready; got %d", rec.Code)
	}
}

func TestHealth_ReadinessPassing(t *testing.T) {
	h := newHealthHandler(t, func(context.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHealth_ReadinessFailing(t *testing.T) {
	h := newHealthHandler(t, func(context.Context) error {
		return errors.New("database unreachable")
	})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
