// Package finance keeps the derived financial figures in step with the ledger
// and is the single entry point presentation code talks to.
package finance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/taxdesk/internal/aggregate"
	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
	"github.com/MrJamesThe3rd/taxdesk/internal/profile"
	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

type Breakdown struct {
	Revenue  []aggregate.CategoryTotal `json:"revenue"`
	Expenses []aggregate.CategoryTotal `json:"expenses"`
}

type Service struct {
	ledger   *ledger.Ledger
	profiles profile.Provider
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	summary     aggregate.Summary
	lastUpdated time.Time

	unsubscribe func()
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService subscribes to the ledger and computes the initial summary.
func NewService(l *ledger.Ledger, profiles profile.Provider, opts ...Option) *Service {
	s := &Service{
		ledger:   l,
		profiles: profiles,
		logger:   slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.Refresh()
	s.unsubscribe = l.Subscribe(s)

	return s
}

// OnLedgerChange recomputes the cached summary.
func (s *Service) OnLedgerChange() {
	s.Refresh()
}

// Refresh recomputes the summary from the current ledger state.
func (s *Service) Refresh() aggregate.Summary {
	sum := aggregate.Summarize(s.ledger.Snapshot())

	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent refresh may already have stored a newer revision.
	if sum.LastUpdatedRevision < s.summary.LastUpdatedRevision {
		return s.summary
	}

	s.summary = sum
	s.lastUpdated = s.now()

	return sum
}

// Summary returns the cached summary. The cache is never behind the ledger:
// a subscriber notified before this service still reads current figures.
func (s *Service) Summary() aggregate.Summary {
	s.mu.Lock()
	cached := s.summary
	s.mu.Unlock()

	if cached.LastUpdatedRevision == s.ledger.Revision() {
		return cached
	}

	return s.Refresh()
}

func (s *Service) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastUpdated
}

// Subscribe registers fn for ledger changes. Reads made from fn through this
// service observe the change.
func (s *Service) Subscribe(fn func()) (unsubscribe func()) {
	return s.ledger.SubscribeFunc(fn)
}

func (s *Service) Ratios() aggregate.Ratios {
	return aggregate.HealthRatios(s.Summary())
}

func (s *Service) Breakdown() Breakdown {
	snap := s.ledger.Snapshot()

	return Breakdown{
		Revenue:  aggregate.RevenueByCategory(snap.Revenues),
		Expenses: aggregate.ExpensesByCategory(snap.Expenses),
	}
}

func (s *Service) EvaluateDeMinimis() tax.DeMinimisResult {
	sum := s.Summary()
	return tax.EvaluateDeMinimis(sum.TotalRevenue, sum.NonQualifyingIncome)
}

// ComputeCIT reads the setup profile once. If it cannot be read the filer is
// treated as a non-QFZP and the failure is logged.
func (s *Service) ComputeCIT(ctx context.Context, elections tax.CITElections) tax.CITResult {
	var qfzp tax.QFZPContext

	p, err := s.profiles.Profile(ctx)
	if err != nil {
		s.logger.Warn("reading setup profile, computing CIT as non-QFZP", "error", err)
	} else {
		qfzp = p.QFZPContext()
	}

	return tax.ComputeCIT(s.Summary(), elections, qfzp)
}

func (s *Service) ComputeVAT(inputs tax.VATInputs) tax.VATResult {
	return tax.ComputeVAT(inputs)
}

func (s *Service) Revenues() []ledger.RevenueEntry { return s.ledger.Revenues() }

func (s *Service) Expenses() []ledger.ExpenseEntry { return s.ledger.Expenses() }

func (s *Service) Revenue(id string) (ledger.RevenueEntry, bool) { return s.ledger.Revenue(id) }

func (s *Service) Expense(id string) (ledger.ExpenseEntry, bool) { return s.ledger.Expense(id) }

func (s *Service) AddRevenue(p ledger.RevenueParams) (string, error) { return s.ledger.AddRevenue(p) }

func (s *Service) AddExpense(p ledger.ExpenseParams) (string, error) { return s.ledger.AddExpense(p) }

func (s *Service) UpdateRevenue(id string, patch ledger.RevenuePatch) error {
	return s.ledger.UpdateRevenue(id, patch)
}

func (s *Service) UpdateExpense(id string, patch ledger.ExpensePatch) error {
	return s.ledger.UpdateExpense(id, patch)
}

func (s *Service) DeleteRevenue(id string) error { return s.ledger.DeleteRevenue(id) }

func (s *Service) DeleteExpense(id string) error { return s.ledger.DeleteExpense(id) }

func (s *Service) ImportBatch(b ledger.Batch) (*ledger.ImportResult, error) {
	return s.ledger.ImportBatch(b)
}

func (s *Service) AddBatch(b ledger.Batch) (*ledger.ImportResult, error) {
	return s.ledger.AddBatch(b)
}

// Close stops following the ledger.
func (s *Service) Close() {
	s.unsubscribe()
}
