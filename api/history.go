package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/btvvardhan/chatbot-backend/internal/history"
	"github.com/btvvardhan/chatbot-backend/internal/log"
)

// HistoryHandler handles session-history endpoints.
type HistoryHandler struct {
	store  history.Store
	logger log.Logger
}

// RegisterRoutes registers history routes on the given mux.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/history/{sessionId}", h.get)
	mux.HandleFunc("DELETE /api/history/{sessionId}", h.delete)
	mux.HandleFunc("DELETE /api/history/{sessionId}/turns/{turnId}", h.deleteTurn)
}

type historyResponse struct {
	SessionID string         `json:"sessionId"`
	Turns     []history.Turn `json:"turns"`
}

// get handles GET /api/history/{sessionId}. Optional limit/offset query
// parameters page through long histories.
func (h *HistoryHandler) get(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")

	limit, ok := queryInt(r, "limit")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	var turns []history.Turn
	var err error
	if limit > 0 || offset > 0 {
		turns, err = h.store.ListPage(r.Context(), sessionID, limit, offset)
	} else {
		turns, err = h.store.List(r.Context(), sessionID)
	}
	if err != nil {
		h.logger.Error("listing history failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, genericFailure)
		return
	}
	if turns == nil {
		turns = []history.Turn{}
	}

	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Turns: turns})
}

// delete handles DELETE /api/history/{sessionId}.
func (h *HistoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if err := h.store.Delete(r.Context(), sessionID); err != nil {
		h.logger.Error("deleting history failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, genericFailure)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteTurn handles DELETE /api/history/{sessionId}/turns/{turnId}.
func (h *HistoryHandler) deleteTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	turnID := r.PathValue("turnId")

	err := h.store.DeleteTurn(r.Context(), sessionID, turnID)
	if err != nil {
		if errors.Is(err, history.ErrTurnNotFound) {
			writeError(w, http.StatusNotFound, "turn not found")
			return
		}
		h.logger.Error("deleting turn failed",
			"session_id", sessionID, "turn_id", turnID, "error", err)
		writeError(w, http.StatusInternalServerError, genericFailure)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses an optional non-negative int32 query parameter.
// Missing values are 0. The second return is false on a malformed value.
func queryInt(r *http.Request, name string) (int32, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 {
		return 0, false
	}
	return int32(n), true
}
