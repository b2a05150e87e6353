// Package history persists conversation turns keyed by a caller-supplied
// session identifier.
//
// Two implementations share the Store interface: MemoryStore (per-process,
// lost on restart) and PostgresStore (durable, one turn per row). Both cap a
// session at a configured number of turns, silently dropping the oldest, and
// both guarantee that concurrent appends to the same session all survive;
// their relative order is unspecified.
package history

import (
	"context"
	"errors"
	"time"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one message in a session.
type Turn struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// ErrTurnNotFound indicates the referenced turn does not exist in the session.
var ErrTurnNotFound = errors.New("turn not found")

// Store persists session histories.
//
// A session's lifecycle is: nonexistent → (first Append) → active →
// (Delete) → nonexistent. List on a nonexistent session returns an empty
// slice, and Delete on one is a no-op.
type Store interface {
	// Append atomically adds turns to the session, creating it if needed,
	// and trims the history to the configured cap (newest kept).
	Append(ctx context.Context, sessionID string, turns ...Turn) error

	// List returns all turns in chronological order.
	List(ctx context.Context, sessionID string) ([]Turn, error)

	// ListPage returns up to limit turns starting at offset, in
	// chronological order. A non-positive limit means no limit; the offset
	// still applies.
	ListPage(ctx context.Context, sessionID string, limit, offset int32) ([]Turn, error)

	// DeleteTurn removes a single turn by ID without rewriting the history.
	DeleteTurn(ctx context.Context, sessionID, turnID string) error

	// Delete removes all turns and the session record itself.
	Delete(ctx context.Context, sessionID string) error
}
