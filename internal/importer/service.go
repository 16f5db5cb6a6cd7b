// Package importer turns bank statement CSV exports into ledger entries.
package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
	"github.com/MrJamesThe3rd/taxdesk/internal/matching"
)

const uncategorized = "Uncategorized"

type Suggester interface {
	Suggest(ctx context.Context, description string) (matching.Rule, bool, error)
}

type Service struct {
	rules Suggester
}

// NewService returns an importer. rules may be nil, in which case no
// categories are suggested.
func NewService(rules Suggester) *Service {
	return &Service{rules: rules}
}

// Import parses a statement into a batch: money in becomes revenue, money
// out becomes an expense. A matching category rule sets the category and,
// for revenue, the Free Zone income type.
func (s *Service) Import(ctx context.Context, r io.Reader) (ledger.Batch, error) {
	rows, err := Parse(r)
	if err != nil {
		return ledger.Batch{}, err
	}

	var batch ledger.Batch

	for _, row := range rows {
		rule, found, err := s.suggest(ctx, row.Description)
		if err != nil {
			return ledger.Batch{}, fmt.Errorf("line %d: %w", row.Line, err)
		}

		if row.Amount.IsPositive() {
			batch.Revenues = append(batch.Revenues, ledger.RevenueParams{
				Amount:      row.Amount,
				Description: row.Description,
				Date:        row.Date,
				Category:    rule.Category,
				IncomeType:  rule.IncomeType,
			})

			continue
		}

		category := uncategorized
		if found {
			category = rule.Category
		}

		batch.Expenses = append(batch.Expenses, ledger.ExpenseParams{
			Amount:      row.Amount.Abs(),
			Category:    category,
			Date:        row.Date,
			Description: row.Description,
		})
	}

	return batch, nil
}

func (s *Service) suggest(ctx context.Context, description string) (matching.Rule, bool, error) {
	if s.rules == nil {
		return matching.Rule{}, false, nil
	}

	rule, found, err := s.rules.Suggest(ctx, description)
	if err != nil {
		return matching.Rule{}, false, fmt.Errorf("suggesting category: %w", err)
	}

	return rule, found, nil
}
