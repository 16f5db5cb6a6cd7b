package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned when a session is used after Commit or Rollback.
var ErrClosed = errors.New("kv: session closed")

//go:generate mockgen -source=kv.go -destination=kv_mock.go -package=kv
type Store interface {
	// Open acquires the store. The returned session must be released with
	// Commit or Rollback; Rollback after Commit is a no-op so callers can defer it.
	Open(ctx context.Context) (Session, error)
}

type Session interface {
	// Get returns the value stored under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Commit() error
	Rollback() error
}
