package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/taxdesk/internal/kv"
)

// Store keeps every key under a common prefix so several ledgers can share one Redis.
type Store struct {
	client *goredis.Client
	prefix string
}

func New(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Open(_ context.Context) (kv.Session, error) {
	return &session{store: s, pipe: s.client.TxPipeline()}, nil
}

// session reads straight from Redis; writes are queued on a MULTI/EXEC pipeline
// and only become visible on Commit.
type session struct {
	store  *Store
	pipe   goredis.Pipeliner
	staged map[string]string
	done   bool
}

func (s *session) key(k string) string {
	if s.store.prefix == "" {
		return k
	}

	return s.store.prefix + ":" + k
}

func (s *session) Get(ctx context.Context, key string) (string, bool, error) {
	if s.done {
		return "", false, kv.ErrClosed
	}

	if v, ok := s.staged[key]; ok {
		return v, true, nil
	}

	v, err := s.store.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("getting %q: %w", key, err)
	}

	return v, true, nil
}

func (s *session) Set(ctx context.Context, key, value string) error {
	if s.done {
		return kv.ErrClosed
	}

	if s.staged == nil {
		s.staged = make(map[string]string)
	}

	s.staged[key] = value
	s.pipe.Set(ctx, s.key(key), value, 0)

	return nil
}

func (s *session) Commit() error {
	if s.done {
		return kv.ErrClosed
	}

	s.done = true

	if len(s.staged) == 0 {
		return nil
	}

	if _, err := s.pipe.Exec(context.Background()); err != nil {
		return fmt.Errorf("committing kv pipeline: %w", err)
	}

	return nil
}

func (s *session) Rollback() error {
	if s.done {
		return nil
	}

	s.done = true
	s.pipe.Discard()

	return nil
}
