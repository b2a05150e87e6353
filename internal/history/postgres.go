package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/btvvardhan/chatbot-backend/internal/log"
)

// PostgresStore persists one turn per row in chat_turns, grouped under a
// chat_sessions row. Appends run in a transaction that locks the session row,
// so concurrent appends to the same session serialize at the database and all
// survive. Schema lives in internal/database/migrations.
type PostgresStore struct {
	pool   *pgxpool.Pool
	cap    int32
	logger log.Logger
}

// NewPostgresStore creates a PostgresStore capping each session at cap turns.
func NewPostgresStore(pool *pgxpool.Pool, cap int, logger log.Logger) *PostgresStore {
	if cap <= 0 {
		cap = 40
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &PostgresStore{
		pool:   pool,
		cap:    int32(cap), // #nosec G115 -- cap is a small positive config value
		logger: logger,
	}
}

// Ping reports whether the database is reachable. Used by the readiness probe.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Append atomically adds turns to the session. The upsert on chat_sessions
// takes a row lock for the transaction, which serializes sequence-number
// assignment across concurrent appends.
func (s *PostgresStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", rbErr)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_sessions (id) VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET updated_at = now()`, sessionID)
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", sessionID, err)
	}

	var maxSeq int32
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM chat_turns WHERE session_id = $1`, sessionID).Scan(&maxSeq)
	if err != nil {
		return fmt.Errorf("reading max sequence for %s: %w", sessionID, err)
	}

	for i, t := range turns {
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		seq := maxSeq + int32(i) + 1 // #nosec G115 -- loop index bounded by slice length
		_, err = tx.Exec(ctx, `
			INSERT INTO chat_turns (id, session_id, seq, role, text, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, sessionID, seq, string(t.Role), t.Text, createdAt)
		if err != nil {
			return fmt.Errorf("inserting turn %d: %w", i, err)
		}
	}

	// Trim beyond the cap, keeping the newest turns.
	newMax := maxSeq + int32(len(turns)) // #nosec G115 -- len bounded by practical turn counts
	if _, err = tx.Exec(ctx, `
		DELETE FROM chat_turns WHERE session_id = $1 AND seq <= $2`,
		sessionID, newMax-s.cap); err != nil {
		return fmt.Errorf("trimming history for %s: %w", sessionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("appended turns", "session_id", sessionID, "count", len(turns))
	return nil
}

// List returns all turns in chronological order.
func (s *PostgresStore) List(ctx context.Context, sessionID string) ([]Turn, error) {
	return s.list(ctx, sessionID, `
		SELECT id, role, text, created_at FROM chat_turns
		WHERE session_id = $1 ORDER BY seq`, sessionID)
}

// ListPage returns up to limit turns starting at offset, chronological.
// A non-positive limit means no limit; the offset still applies.
func (s *PostgresStore) ListPage(ctx context.Context, sessionID string, limit, offset int32) ([]Turn, error) {
	if limit <= 0 && offset <= 0 {
		return s.List(ctx, sessionID)
	}
	if limit <= 0 {
		return s.list(ctx, sessionID, `
			SELECT id, role, text, created_at FROM chat_turns
			WHERE session_id = $1 ORDER BY seq OFFSET $2`, sessionID, offset)
	}
	return s.list(ctx, sessionID, `
		SELECT id, role, text, created_at FROM chat_turns
		WHERE session_id = $1 ORDER BY seq LIMIT $2 OFFSET $3`, sessionID, limit, offset)
}

func (s *PostgresStore) list(ctx context.Context, sessionID, query string, args ...any) ([]Turn, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns for %s: %w", sessionID, err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		var t Turn
		var role string
		if err := rows.Scan(&t.ID, &role, &t.Text, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading turns for %s: %w", sessionID, err)
	}
	return turns, nil
}

// DeleteTurn removes a single turn by ID without rewriting the history.
func (s *PostgresStore) DeleteTurn(ctx context.Context, sessionID, turnID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM chat_turns WHERE session_id = $1 AND id = $2`, sessionID, turnID)
	if err != nil {
		return fmt.Errorf("deleting turn %s: %w", turnID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTurnNotFound
	}
	return nil
}

// Delete removes the session row; chat_turns rows go with it via
// ON DELETE CASCADE. Deleting a nonexistent session is a no-op.
func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM chat_sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	s.logger.Debug("deleted session", "session_id", sessionID)
	return nil
}
