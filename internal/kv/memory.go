package kv

import (
	"context"
	"sync"
)

// Memory is a process-local Store. Writes are staged per session and applied on Commit.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Open(_ context.Context) (Session, error) {
	return &memorySession{store: m, staged: make(map[string]string)}, nil
}

type memorySession struct {
	store  *Memory
	staged map[string]string
	done   bool
}

func (s *memorySession) Get(_ context.Context, key string) (string, bool, error) {
	if s.done {
		return "", false, ErrClosed
	}

	if v, ok := s.staged[key]; ok {
		return v, true, nil
	}

	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	v, ok := s.store.data[key]

	return v, ok, nil
}

func (s *memorySession) Set(_ context.Context, key, value string) error {
	if s.done {
		return ErrClosed
	}

	s.staged[key] = value

	return nil
}

func (s *memorySession) Commit() error {
	if s.done {
		return ErrClosed
	}

	s.done = true

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for k, v := range s.staged {
		s.store.data[k] = v
	}

	return nil
}

func (s *memorySession) Rollback() error {
	s.done = true
	s.staged = nil

	return nil
}
