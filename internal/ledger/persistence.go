package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	keyRevenues = "revenues"
	keyExpenses = "expenses"
)

// revenueRecord and expenseRecord are the persisted shapes: string id,
// ISO-8601 date and the amount as a JSON number.
type revenueRecord struct {
	ID                 string      `json:"id"`
	Amount             json.Number `json:"amount"`
	Description        string      `json:"description"`
	Date               string      `json:"date"`
	Category           string      `json:"category,omitempty"`
	FreeZoneIncomeType string      `json:"freeZoneIncomeType,omitempty"`
}

type expenseRecord struct {
	ID          string      `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	Description string      `json:"description,omitempty"`
	Vendor      string      `json:"vendor,omitempty"`
}

// Load replaces the in-memory ledger with the persisted one.
//
// A missing blob is an empty list. A blob that is not valid JSON is logged and
// treated as empty; records inside it that cannot be decoded are skipped. When
// the store itself fails the ledger is left untouched and the error, wrapped in
// ErrPersistence, is returned after being logged.
func (l *Ledger) Load(ctx context.Context) error {
	session, err := l.store.Open(ctx)
	if err != nil {
		return l.persistenceFailure("opening store", err)
	}
	defer session.Rollback()

	rawRevenues, _, err := session.Get(ctx, keyRevenues)
	if err != nil {
		return l.persistenceFailure("reading revenues", err)
	}

	rawExpenses, _, err := session.Get(ctx, keyExpenses)
	if err != nil {
		return l.persistenceFailure("reading expenses", err)
	}

	revenues := l.decodeRevenues(rawRevenues)
	expenses := l.decodeExpenses(rawExpenses)

	l.mutate(func() bool {
		l.revenues = revenues
		l.expenses = expenses

		return true
	})

	l.logger.Info("ledger loaded", "revenues", len(revenues), "expenses", len(expenses))

	return nil
}

// Flush writes the current ledger to the store in a single session.
func (l *Ledger) Flush(ctx context.Context) error {
	snap := l.Snapshot()

	revenues, err := json.Marshal(encodeRevenues(snap.Revenues))
	if err != nil {
		return l.persistenceFailure("encoding revenues", err)
	}

	expenses, err := json.Marshal(encodeExpenses(snap.Expenses))
	if err != nil {
		return l.persistenceFailure("encoding expenses", err)
	}

	session, err := l.store.Open(ctx)
	if err != nil {
		return l.persistenceFailure("opening store", err)
	}
	defer session.Rollback()

	if err := session.Set(ctx, keyRevenues, string(revenues)); err != nil {
		return l.persistenceFailure("writing revenues", err)
	}

	if err := session.Set(ctx, keyExpenses, string(expenses)); err != nil {
		return l.persistenceFailure("writing expenses", err)
	}

	if err := session.Commit(); err != nil {
		return l.persistenceFailure("committing", err)
	}

	return nil
}

// AutoFlush persists the ledger after every committed mutation. Failures are
// logged by Flush and otherwise ignored.
func (l *Ledger) AutoFlush(timeout time.Duration) (stop func()) {
	return l.SubscribeFunc(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		_ = l.Flush(ctx)
	})
}

// Close flushes the ledger one last time and drops every subscriber.
func (l *Ledger) Close(ctx context.Context) error {
	err := l.Flush(ctx)
	l.notifier.reset()

	return err
}

func (l *Ledger) persistenceFailure(op string, err error) error {
	wrapped := fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
	l.logger.Error("ledger persistence failed", "op", op, "error", err)

	return wrapped
}

func (l *Ledger) decodeRevenues(raw string) []RevenueEntry {
	if raw == "" {
		return nil
	}

	var records []revenueRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		l.logger.Error("corrupt persisted revenues, starting empty", "error", err)
		return nil
	}

	entries := make([]RevenueEntry, 0, len(records))

	for _, r := range records {
		amount, date, err := decodeAmountAndDate(r.Amount, r.Date)
		if err != nil {
			l.logger.Warn("skipping persisted revenue", "id", r.ID, "error", err)
			continue
		}

		entry := RevenueEntry{
			ID:          r.ID,
			Amount:      amount,
			Description: r.Description,
			Date:        date,
			Category:    r.Category,
			IncomeType:  IncomeType(r.FreeZoneIncomeType),
		}

		if err := l.validateEntry(entry); err != nil || r.ID == "" {
			l.logger.Warn("skipping persisted revenue", "id", r.ID, "error", err)
			continue
		}

		entries = append(entries, entry)
	}

	return entries
}

func (l *Ledger) decodeExpenses(raw string) []ExpenseEntry {
	if raw == "" {
		return nil
	}

	var records []expenseRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		l.logger.Error("corrupt persisted expenses, starting empty", "error", err)
		return nil
	}

	entries := make([]ExpenseEntry, 0, len(records))

	for _, r := range records {
		amount, date, err := decodeAmountAndDate(r.Amount, r.Date)
		if err != nil {
			l.logger.Warn("skipping persisted expense", "id", r.ID, "error", err)
			continue
		}

		entry := ExpenseEntry{
			ID:          r.ID,
			Amount:      amount,
			Category:    r.Category,
			Date:        date,
			Description: r.Description,
			Vendor:      r.Vendor,
		}

		if err := l.validateEntry(entry); err != nil || r.ID == "" {
			l.logger.Warn("skipping persisted expense", "id", r.ID, "error", err)
			continue
		}

		entries = append(entries, entry)
	}

	return entries
}

func decodeAmountAndDate(amount json.Number, date string) (decimal.Decimal, time.Time, error) {
	d, err := decimal.NewFromString(amount.String())
	if err != nil {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("amount %q: %w", amount, err)
	}

	t, err := parseDate(date)
	if err != nil {
		return decimal.Decimal{}, time.Time{}, err
	}

	return d, t, nil
}

// parseDate accepts a plain calendar date or a full ISO-8601 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}

	return civilDate(t), nil
}

func encodeRevenues(entries []RevenueEntry) []revenueRecord {
	records := make([]revenueRecord, len(entries))
	for i, e := range entries {
		records[i] = revenueRecord{
			ID:                 e.ID,
			Amount:             json.Number(e.Amount.String()),
			Description:        e.Description,
			Date:               e.Date.Format(time.DateOnly),
			Category:           e.Category,
			FreeZoneIncomeType: string(e.IncomeType),
		}
	}

	return records
}

func encodeExpenses(entries []ExpenseEntry) []expenseRecord {
	records := make([]expenseRecord, len(entries))
	for i, e := range entries {
		records[i] = expenseRecord{
			ID:          e.ID,
			Amount:      json.Number(e.Amount.String()),
			Category:    e.Category,
			Date:        e.Date.Format(time.DateOnly),
			Description: e.Description,
			Vendor:      e.Vendor,
		}
	}

	return records
}
