package ledger

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/taxdesk/internal/kv"
)

// Ledger owns the canonical revenue and expense lists. Every successful
// mutation bumps the revision and notifies subscribers before returning.
type Ledger struct {
	store    kv.Store
	logger   *slog.Logger
	validate *validator.Validate
	newID    func() (string, error)
	notifier *Notifier

	// writeMu serializes whole mutate-then-notify cycles, so a subscriber
	// reading the ledger always sees the mutation it is being told about.
	writeMu sync.Mutex

	mu       sync.RWMutex
	revenues []RevenueEntry
	expenses []ExpenseEntry
	revision uint64
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(l *Ledger) { l.newID = fn }
}

func New(store kv.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		logger:   slog.Default(),
		validate: newValidator(),
		newID:    newEntryID,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.notifier = NewNotifier(l.logger)

	return l
}

// newEntryID returns a UUIDv7: a millisecond timestamp followed by random bits,
// so ids stay unique across rapid successive calls.
func newEntryID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (l *Ledger) Subscribe(s Subscriber) (unsubscribe func()) {
	return l.notifier.Subscribe(s)
}

func (l *Ledger) SubscribeFunc(fn func()) (unsubscribe func()) {
	return l.notifier.SubscribeFunc(fn)
}

// mutate runs apply under the write lock. When apply reports a change the
// revision is bumped and, once the new state is readable, subscribers run.
func (l *Ledger) mutate(apply func() bool) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	changed := apply()

	if changed {
		l.revision++
	}
	l.mu.Unlock()

	if changed {
		l.notifier.NotifyAll()
	}
}

func (l *Ledger) AddRevenue(params RevenueParams) (string, error) {
	id, err := l.newID()
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}

	entry := params.entry(id)
	if err := l.validateEntry(entry); err != nil {
		return "", err
	}

	l.mutate(func() bool {
		l.revenues = append(l.revenues, entry)
		return true
	})

	return id, nil
}

func (l *Ledger) AddExpense(params ExpenseParams) (string, error) {
	id, err := l.newID()
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}

	entry := params.entry(id)
	if err := l.validateEntry(entry); err != nil {
		return "", err
	}

	l.mutate(func() bool {
		l.expenses = append(l.expenses, entry)
		return true
	})

	return id, nil
}

// UpdateRevenue applies patch to the entry with the given id. An unknown id is
// a no-op: no error, no new revision, no notification.
func (l *Ledger) UpdateRevenue(id string, patch RevenuePatch) error {
	if err := validateID(id); err != nil {
		return err
	}

	var validationErr error

	l.mutate(func() bool {
		i := slices.IndexFunc(l.revenues, func(e RevenueEntry) bool { return e.ID == id })
		if i < 0 {
			return false
		}

		updated := patch.apply(l.revenues[i])
		if err := l.validateEntry(updated); err != nil {
			validationErr = err
			return false
		}

		l.revenues[i] = updated

		return true
	})

	return validationErr
}

func (l *Ledger) UpdateExpense(id string, patch ExpensePatch) error {
	if err := validateID(id); err != nil {
		return err
	}

	var validationErr error

	l.mutate(func() bool {
		i := slices.IndexFunc(l.expenses, func(e ExpenseEntry) bool { return e.ID == id })
		if i < 0 {
			return false
		}

		updated := patch.apply(l.expenses[i])
		if err := l.validateEntry(updated); err != nil {
			validationErr = err
			return false
		}

		l.expenses[i] = updated

		return true
	})

	return validationErr
}

// DeleteRevenue removes the entry with the given id. An unknown id is a no-op.
func (l *Ledger) DeleteRevenue(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	l.mutate(func() bool {
		before := len(l.revenues)
		l.revenues = slices.DeleteFunc(l.revenues, func(e RevenueEntry) bool { return e.ID == id })

		return len(l.revenues) != before
	})

	return nil
}

func (l *Ledger) DeleteExpense(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	l.mutate(func() bool {
		before := len(l.expenses)
		l.expenses = slices.DeleteFunc(l.expenses, func(e ExpenseEntry) bool { return e.ID == id })

		return len(l.expenses) != before
	})

	return nil
}

func (l *Ledger) Revenue(id string) (RevenueEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := slices.IndexFunc(l.revenues, func(e RevenueEntry) bool { return e.ID == id })
	if i < 0 {
		return RevenueEntry{}, false
	}

	return l.revenues[i], true
}

func (l *Ledger) Expense(id string) (ExpenseEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := slices.IndexFunc(l.expenses, func(e ExpenseEntry) bool { return e.ID == id })
	if i < 0 {
		return ExpenseEntry{}, false
	}

	return l.expenses[i], true
}

func (l *Ledger) Revenues() []RevenueEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.revenues)
}

func (l *Ledger) Expenses() []ExpenseEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.expenses)
}

func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.revision
}

// Snapshot returns both lists and the revision they belong to.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Snapshot{
		Revenues: slices.Clone(l.revenues),
		Expenses: slices.Clone(l.expenses),
		Revision: l.revision,
	}
}
