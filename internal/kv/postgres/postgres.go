package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/MrJamesThe3rd/taxdesk/internal/kv"
)

const schema = `
	CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the kv_entries table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating kv schema: %w", err)
	}

	return nil
}

// sessionLockKey serializes writers of the same database; readers share it too
// so a Load never observes half of a Flush.
func sessionLockKey() int64 {
	h := fnv.New64a()
	h.Write([]byte("taxdesk/kv"))

	return int64(h.Sum64())
}

type session struct {
	tx *sql.Tx
}

func (s *Store) Open(ctx context.Context) (kv.Session, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning kv tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", sessionLockKey()); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring kv lock: %w", err)
	}

	return &session{tx: dbTx}, nil
}

func (s *session) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := s.tx.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		if errors.Is(err, sql.ErrTxDone) {
			return "", false, kv.ErrClosed
		}

		return "", false, fmt.Errorf("getting %q: %w", key, err)
	}

	return value, true, nil
}

func (s *session) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := s.tx.ExecContext(ctx, query, key, value); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return kv.ErrClosed
		}

		return fmt.Errorf("setting %q: %w", key, err)
	}

	return nil
}

func (s *session) Commit() error {
	if err := s.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return kv.ErrClosed
		}

		return fmt.Errorf("committing kv tx: %w", err)
	}

	return nil
}

func (s *session) Rollback() error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back kv tx: %w", err)
	}

	return nil
}
