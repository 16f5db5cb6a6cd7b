package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/taxdesk/internal/kv"
)

const key = "setupProfile"

var ErrInvalidProfile = errors.New("invalid profile")

// Store keeps the profile as a JSON document in the kv store. When nothing has
// been saved yet it serves the fallback profile.
type Store struct {
	kv       kv.Store
	fallback Profile
}

func NewStore(store kv.Store, fallback Profile) *Store {
	return &Store{kv: store, fallback: fallback}
}

func (s *Store) Profile(ctx context.Context) (Profile, error) {
	session, err := s.kv.Open(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("opening store: %w", err)
	}
	defer session.Rollback()

	raw, found, err := session.Get(ctx, key)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile: %w", err)
	}

	if !found {
		return s.fallback, nil
	}

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, fmt.Errorf("decoding profile: %w", err)
	}

	return p, nil
}

func (s *Store) Save(ctx context.Context, p Profile) error {
	if p.FreeZoneIncome.Qualifying.IsNegative() {
		return fmt.Errorf("%w: qualifying income ceiling must not be negative", ErrInvalidProfile)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	session, err := s.kv.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer session.Rollback()

	if err := session.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}

	if err := session.Commit(); err != nil {
		return fmt.Errorf("committing profile: %w", err)
	}

	return nil
}
