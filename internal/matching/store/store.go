package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/taxdesk/internal/kv"
	"github.com/MrJamesThe3rd/taxdesk/internal/matching"
)

const key = "categoryRules"

// Store keeps the rules as one JSON array in the kv store, oldest first.
type Store struct {
	kv kv.Store
}

func New(store kv.Store) *Store {
	return &Store{kv: store}
}

func (s *Store) Rules(ctx context.Context) ([]matching.Rule, error) {
	session, err := s.kv.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer session.Rollback()

	return readRules(ctx, session)
}

func (s *Store) SaveRule(ctx context.Context, r matching.Rule) error {
	session, err := s.kv.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer session.Rollback()

	rules, err := readRules(ctx, session)
	if err != nil {
		return err
	}

	// A re-learned pattern moves to the end so it wins ties.
	kept := rules[:0]
	for _, existing := range rules {
		if !strings.EqualFold(existing.Pattern, r.Pattern) {
			kept = append(kept, existing)
		}
	}

	raw, err := json.Marshal(append(kept, r))
	if err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}

	if err := session.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	if err := session.Commit(); err != nil {
		return fmt.Errorf("committing rules: %w", err)
	}

	return nil
}

func readRules(ctx context.Context, session kv.Session) ([]matching.Rule, error) {
	raw, found, err := session.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	if !found {
		return nil, nil
	}

	var rules []matching.Rule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return nil, fmt.Errorf("decoding rules: %w", err)
	}

	return rules, nil
}
