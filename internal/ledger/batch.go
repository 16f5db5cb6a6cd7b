package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	KindRevenue EntryKind = "revenue"
	KindExpense EntryKind = "expense"
)

// Batch is a set of entries added as one mutation: one revision, one notification.
type Batch struct {
	Revenues []RevenueParams
	Expenses []ExpenseParams
}

func (b Batch) Len() int { return len(b.Revenues) + len(b.Expenses) }

// Conflict pairs an incoming row with the existing entry it duplicates.
type Conflict struct {
	Kind        EntryKind
	Index       int // position inside Batch.Revenues or Batch.Expenses
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	ExistingID  string
}

type ImportResult struct {
	Revenues  []RevenueEntry
	Expenses  []ExpenseEntry
	Conflicts []Conflict
}

// ImportBatch adds the batch unless some row duplicates an existing entry
// (same date, amount and description). In that case nothing is added and the
// conflicts are returned so the caller can decide; AddBatch then commits the
// chosen rows unconditionally.
func (l *Ledger) ImportBatch(batch Batch) (*ImportResult, error) {
	revenues, expenses, err := l.prepareBatch(batch)
	if err != nil {
		return nil, err
	}

	var conflicts []Conflict

	l.mutate(func() bool {
		conflicts = l.findConflicts(revenues, expenses)
		if len(conflicts) > 0 {
			return false
		}

		l.revenues = append(l.revenues, revenues...)
		l.expenses = append(l.expenses, expenses...)

		return len(revenues)+len(expenses) > 0
	})

	if len(conflicts) > 0 {
		return &ImportResult{Conflicts: conflicts}, nil
	}

	return &ImportResult{Revenues: revenues, Expenses: expenses}, nil
}

// AddBatch adds every row of the batch without duplicate detection.
func (l *Ledger) AddBatch(batch Batch) (*ImportResult, error) {
	revenues, expenses, err := l.prepareBatch(batch)
	if err != nil {
		return nil, err
	}

	l.mutate(func() bool {
		l.revenues = append(l.revenues, revenues...)
		l.expenses = append(l.expenses, expenses...)

		return len(revenues)+len(expenses) > 0
	})

	return &ImportResult{Revenues: revenues, Expenses: expenses}, nil
}

// prepareBatch assigns ids and validates every row; one bad row rejects the batch.
func (l *Ledger) prepareBatch(batch Batch) ([]RevenueEntry, []ExpenseEntry, error) {
	revenues := make([]RevenueEntry, 0, len(batch.Revenues))

	for i, p := range batch.Revenues {
		id, err := l.newID()
		if err != nil {
			return nil, nil, fmt.Errorf("generating id: %w", err)
		}

		entry := p.entry(id)
		if err := l.validateEntry(entry); err != nil {
			return nil, nil, fmt.Errorf("revenue %d: %w", i, err)
		}

		revenues = append(revenues, entry)
	}

	expenses := make([]ExpenseEntry, 0, len(batch.Expenses))

	for i, p := range batch.Expenses {
		id, err := l.newID()
		if err != nil {
			return nil, nil, fmt.Errorf("generating id: %w", err)
		}

		entry := p.entry(id)
		if err := l.validateEntry(entry); err != nil {
			return nil, nil, fmt.Errorf("expense %d: %w", i, err)
		}

		expenses = append(expenses, entry)
	}

	return revenues, expenses, nil
}

type dupKey struct {
	Date        string
	Amount      string
	Description string
}

func newDupKey(date time.Time, amount decimal.Decimal, description string) dupKey {
	return dupKey{
		Date:        date.Format(time.DateOnly),
		Amount:      amount.StringFixed(2),
		Description: description,
	}
}

// findConflicts must be called with l.mu held.
func (l *Ledger) findConflicts(revenues []RevenueEntry, expenses []ExpenseEntry) []Conflict {
	existingRevenues := make(map[dupKey]string, len(l.revenues))
	for _, e := range l.revenues {
		existingRevenues[newDupKey(e.Date, e.Amount, e.Description)] = e.ID
	}

	existingExpenses := make(map[dupKey]string, len(l.expenses))
	for _, e := range l.expenses {
		existingExpenses[newDupKey(e.Date, e.Amount, e.Description)] = e.ID
	}

	var conflicts []Conflict

	for i, e := range revenues {
		if id, found := existingRevenues[newDupKey(e.Date, e.Amount, e.Description)]; found {
			conflicts = append(conflicts, Conflict{
				Kind: KindRevenue, Index: i, Date: e.Date, Amount: e.Amount, Description: e.Description, ExistingID: id,
			})
		}
	}

	for i, e := range expenses {
		if id, found := existingExpenses[newDupKey(e.Date, e.Amount, e.Description)]; found {
			conflicts = append(conflicts, Conflict{
				Kind: KindExpense, Index: i, Date: e.Date, Amount: e.Amount, Description: e.Description, ExistingID: id,
			})
		}
	}

	return conflicts
}
