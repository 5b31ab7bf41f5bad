package storage

// sqlite.go — durable attempt counts plus a pass history.
//
// The attempts table is the one piece of state the keeper cannot rebuild
// from the chain: how many times a trigger submission already failed. Every
// increment is a synchronous upsert so a crash right after a failure never
// forgets it. Counts only go up; the key space is bounded by orders ever
// seen, so rows are kept forever. The passes table is operator history only.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/takepile/pilekeeper/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
    order_key  TEXT PRIMARY KEY,
    count      INTEGER  NOT NULL DEFAULT 0,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS passes (
    id          TEXT PRIMARY KEY,
    kind        TEXT     NOT NULL,
    started_at  DATETIME NOT NULL,
    duration_ms INTEGER  NOT NULL DEFAULT 0,
    piles       INTEGER  NOT NULL DEFAULT 0,
    actionable  INTEGER  NOT NULL DEFAULT 0,
    submitted   INTEGER  NOT NULL DEFAULT 0,
    failed      INTEGER  NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_passes_at ON passes(started_at DESC);
`

// Store implements ports.AttemptStore and ports.PassStore on SQLite
// (pure Go driver, no CGo).
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at the given path and applies the
// schema. ":memory:" works for tests.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewStore: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the attempt count for an order key, 0 if never seen.
func (s *Store) Get(ctx context.Context, key string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM attempts WHERE order_key = ?`, key,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage.Get: %q: %w", key, err)
	}
	return count, nil
}

// Increment adds one to the key's count. The write is committed before
// Increment returns; there is no buffering to lose on a crash.
func (s *Store) Increment(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (order_key, count, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(order_key) DO UPDATE SET
			count      = count + 1,
			updated_at = excluded.updated_at
	`, key, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storage.Increment: %q: %w", key, err)
	}
	return nil
}

// SavePass records one summary row for a finished pass.
func (s *Store) SavePass(ctx context.Context, rec domain.PassRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO passes (id, kind, started_at, duration_ms, piles, actionable, submitted, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Kind, rec.StartedAt.UTC(), rec.Duration.Milliseconds(),
		rec.Piles, rec.Actionable, rec.Submitted, rec.Failed)
	if err != nil {
		return fmt.Errorf("storage.SavePass: %s: %w", rec.ID, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
