package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps session histories in a map. State is lost on process
// restart. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]Turn
	cap      int
}

// NewMemoryStore creates a MemoryStore capping each session at cap turns.
// Non-positive cap falls back to 40.
func NewMemoryStore(cap int) *MemoryStore {
	if cap <= 0 {
		cap = 40
	}
	return &MemoryStore{
		sessions: make(map[string][]Turn),
		cap:      cap,
	}
}

// Append adds turns to the session, assigning IDs and timestamps, and trims
// to the cap keeping the newest turns.
func (s *MemoryStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	existing := s.sessions[sessionID]
	for _, t := range turns {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		existing = append(existing, t)
	}
	if len(existing) > s.cap {
		// Copy so the dropped prefix can be collected.
		trimmed := make([]Turn, s.cap)
		copy(trimmed, existing[len(existing)-s.cap:])
		existing = trimmed
	}
	s.sessions[sessionID] = existing
	return nil
}

// List returns all turns in chronological order. Unknown sessions yield an
// empty slice.
func (s *MemoryStore) List(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// ListPage returns up to limit turns starting at offset. A non-positive
// limit means no limit; the offset still applies.
func (s *MemoryStore) ListPage(_ context.Context, sessionID string, limit, offset int32) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.sessions[sessionID]
	if offset < 0 || int(offset) >= len(turns) {
		return []Turn{}, nil
	}
	end := len(turns)
	if limit > 0 && int(offset)+int(limit) < end {
		end = int(offset) + int(limit)
	}
	out := make([]Turn, end-int(offset))
	copy(out, turns[offset:end])
	return out, nil
}

// DeleteTurn removes a single turn by ID.
func (s *MemoryStore) DeleteTurn(_ context.Context, sessionID, turnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.sessions[sessionID]
	for i, t := range turns {
		if t.ID == turnID {
			s.sessions[sessionID] = append(turns[:i:i], turns[i+1:]...)
			return nil
		}
	}
	return ErrTurnNotFound
}

// Delete removes the session and all its turns. Deleting a nonexistent
// session is a no-op.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
