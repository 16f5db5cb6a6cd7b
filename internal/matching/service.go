// Package matching learns which category a bank description belongs to.
package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
)

var ErrInvalidRule = errors.New("invalid category rule")

// Rule assigns a category, and for revenue an income type, to every
// description containing Pattern.
type Rule struct {
	Pattern    string            `json:"pattern"`
	Category   string            `json:"category"`
	IncomeType ledger.IncomeType `json:"incomeType,omitempty"`
}

type Repository interface {
	Rules(ctx context.Context) ([]Rule, error)
	// SaveRule stores r, replacing any rule with the same pattern.
	SaveRule(ctx context.Context, r Rule) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the rule whose pattern occurs in description, ignoring
// case. The longest pattern wins; among equal lengths the latest learned one.
func (s *Service) Suggest(ctx context.Context, description string) (Rule, bool, error) {
	rules, err := s.repo.Rules(ctx)
	if err != nil {
		return Rule{}, false, fmt.Errorf("loading rules: %w", err)
	}

	desc := strings.ToLower(description)

	var (
		best  Rule
		found bool
	)

	for _, r := range rules {
		if !strings.Contains(desc, strings.ToLower(r.Pattern)) {
			continue
		}

		if !found || len(r.Pattern) >= len(best.Pattern) {
			best, found = r, true
		}
	}

	return best, found, nil
}

// Learn remembers a new rule.
func (s *Service) Learn(ctx context.Context, r Rule) error {
	r.Pattern = strings.TrimSpace(r.Pattern)
	r.Category = strings.TrimSpace(r.Category)

	if r.Pattern == "" {
		return fmt.Errorf("%w: pattern is required", ErrInvalidRule)
	}

	if r.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidRule)
	}

	switch r.IncomeType {
	case ledger.IncomeUnclassified, ledger.IncomeQualifying, ledger.IncomeNonQualifying:
	default:
		return fmt.Errorf("%w: unknown income type %q", ErrInvalidRule, r.IncomeType)
	}

	return s.repo.SaveRule(ctx, r)
}

func (s *Service) Rules(ctx context.Context) ([]Rule, error) {
	return s.repo.Rules(ctx)
}
