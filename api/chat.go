package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/btvvardhan/chatbot-backend/internal/chat"
	"github.com/btvvardhan/chatbot-backend/internal/log"
)

// genericFailure is the only processing-error message returned to callers;
// the actual cause stays in server-side logs.
const genericFailure = "failed to process the request"

// ChatService answers user messages. Defined here by the consumer;
// chat.Service satisfies it.
type ChatService interface {
	Reply(ctx context.Context, sessionID, message string) (string, error)
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	chat   ChatService
	logger log.Logger
}

// RegisterRoutes registers chat routes on the given mux. The method pattern
// makes ServeMux answer 405 for non-POST requests.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.send)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

// send handles POST /api/chat. A missing sessionId starts a new session; the
// generated ID comes back in the response so the caller can continue the
// conversation.
func (h *ChatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply, err := h.chat.Reply(r.Context(), sessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		h.logger.Error("chat request failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, genericFailure)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, SessionID: sessionID})
}
