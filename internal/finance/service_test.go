package finance_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	"github.com/MrJamesThe3rd/taxdesk/internal/kv"
	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
	"github.com/MrJamesThe3rd/taxdesk/internal/profile"
	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

var day = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, profiles profile.Provider) (*finance.Service, *ledger.Ledger) {
	t.Helper()

	l := ledger.New(kv.NewMemory(), ledger.WithLogger(quietLogger()))
	s := finance.NewService(l, profiles, finance.WithLogger(quietLogger()))
	t.Cleanup(s.Close)

	return s, l
}

func revenue(t *testing.T, s *finance.Service, amount string, it ledger.IncomeType) string {
	t.Helper()

	id, err := s.AddRevenue(ledger.RevenueParams{
		Amount:     decimal.RequireFromString(amount),
		Date:       day,
		IncomeType: it,
	})
	require.NoError(t, err)

	return id
}

func expense(t *testing.T, s *finance.Service, amount, category string) string {
	t.Helper()

	id, err := s.AddExpense(ledger.ExpenseParams{
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     day,
	})
	require.NoError(t, err)

	return id
}

func TestService_InitialSummary(t *testing.T) {
	l := ledger.New(kv.NewMemory(), ledger.WithLogger(quietLogger()))
	_, err := l.AddRevenue(ledger.RevenueParams{Amount: decimal.NewFromInt(100), Date: day})
	require.NoError(t, err)

	s := finance.NewService(l, profile.Static{}, finance.WithLogger(quietLogger()))
	defer s.Close()

	assert.Equal(t, "100", s.Summary().TotalRevenue.String())
	assert.Equal(t, 1, s.Summary().RevenueCount)
}

func TestService_FollowsMutations(t *testing.T) {
	s, _ := newService(t, profile.Static{})

	id := revenue(t, s, "1000", ledger.IncomeQualifying)
	expense(t, s, "250", "Rent")

	sum := s.Summary()
	assert.Equal(t, "1000", sum.TotalRevenue.String())
	assert.Equal(t, "250", sum.TotalExpenses.String())
	assert.Equal(t, "750", sum.NetIncome.String())
	assert.Equal(t, "1000", sum.QualifyingIncome.String())

	amount := decimal.NewFromInt(400)
	require.NoError(t, s.UpdateRevenue(id, ledger.RevenuePatch{Amount: &amount}))
	assert.Equal(t, "400", s.Summary().TotalRevenue.String())

	require.NoError(t, s.DeleteRevenue(id))
	assert.True(t, s.Summary().TotalRevenue.IsZero())
	assert.Equal(t, "-250", s.Summary().NetIncome.String())
}

func TestService_SummaryIsIdempotent(t *testing.T) {
	s, _ := newService(t, profile.Static{})
	revenue(t, s, "10", ledger.IncomeNonQualifying)

	first := s.Summary()
	second := s.Summary()

	assert.Equal(t, first.LastUpdatedRevision, second.LastUpdatedRevision)
	assert.True(t, first.TotalRevenue.Equal(second.TotalRevenue))
	assert.True(t, first.NonQualifyingIncome.Equal(second.NonQualifyingIncome))
}

func TestService_SubscriberSeesFreshSummary(t *testing.T) {
	s, _ := newService(t, profile.Static{})

	var seen []string

	unsubscribe := s.Subscribe(func() {
		seen = append(seen, s.Summary().TotalRevenue.String())
	})
	defer unsubscribe()

	revenue(t, s, "5", "")
	revenue(t, s, "7", "")

	assert.Equal(t, []string{"5", "12"}, seen)
}

func TestService_LastUpdated(t *testing.T) {
	l := ledger.New(kv.NewMemory(), ledger.WithLogger(quietLogger()))

	now := day
	s := finance.NewService(l, profile.Static{}, finance.WithClock(func() time.Time { return now }))
	defer s.Close()

	assert.Equal(t, day, s.LastUpdated())

	now = day.Add(time.Hour)
	_, err := s.AddExpense(ledger.ExpenseParams{Amount: decimal.NewFromInt(1), Category: "Fees", Date: day})
	require.NoError(t, err)

	assert.Equal(t, day.Add(time.Hour), s.LastUpdated())
}

func TestService_CloseStopsFollowing(t *testing.T) {
	l := ledger.New(kv.NewMemory(), ledger.WithLogger(quietLogger()))

	now := day
	s := finance.NewService(l, profile.Static{}, finance.WithClock(func() time.Time { return now }))
	s.Close()

	now = day.Add(time.Hour)
	_, err := l.AddRevenue(ledger.RevenueParams{Amount: decimal.NewFromInt(1), Date: day})
	require.NoError(t, err)

	assert.Equal(t, day, s.LastUpdated())
	// Reads still catch up with the ledger on demand.
	assert.Equal(t, "1", s.Summary().TotalRevenue.String())
}

func TestService_EvaluateDeMinimis(t *testing.T) {
	s, _ := newService(t, profile.Static{})

	revenue(t, s, "950000", ledger.IncomeQualifying)
	revenue(t, s, "50000", ledger.IncomeNonQualifying)

	got := s.EvaluateDeMinimis()
	assert.Equal(t, "5", got.NonQualifyingPercentage.String())
	assert.True(t, got.IsCompliant)

	revenue(t, s, "1", ledger.IncomeNonQualifying)

	got = s.EvaluateDeMinimis()
	assert.True(t, got.ExceedsPercentage)
	assert.False(t, got.IsCompliant)
}

func TestService_ComputeCIT(t *testing.T) {
	type testCase struct {
		name        string
		profile     profile.Profile
		profileErr  error
		wantPayable string
	}

	tests := []testCase{
		{
			name: "QFZP",
			profile: profile.Profile{
				IsQFZP:         true,
				FreeZoneIncome: profile.FreeZoneIncome{Qualifying: decimal.NewFromInt(1_000_000)},
			},
			wantPayable: "11250",
		},
		{
			name:        "Mainland",
			profile:     profile.Profile{},
			wantPayable: "101250",
		},
		{
			name:        "ProfileUnavailableFallsBackToMainland",
			profileErr:  errors.New("store down"),
			wantPayable: "101250",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			profiles := profile.NewMockProvider(ctrl)
			profiles.EXPECT().Profile(gomock.Any()).Return(tt.profile, tt.profileErr).Times(1)

			s, _ := newService(t, profiles)
			revenue(t, s, "2000000", ledger.IncomeQualifying)
			expense(t, s, "500000", "Salaries")

			got := s.ComputeCIT(context.Background(), tax.CITElections{})
			assert.Equal(t, tt.wantPayable, got.CITPayable.String())
			assert.Equal(t, "1500000", got.TaxableIncome.String())
		})
	}
}

func TestService_ComputeVAT(t *testing.T) {
	s, _ := newService(t, profile.Static{})

	got := s.ComputeVAT(tax.VATInputs{
		StandardRatedSales:            decimal.NewFromInt(400_000),
		RecoverablePurchases:          decimal.NewFromInt(100_000),
		IsDesignatedZone:              true,
		DesignatedZoneMainlandImports: decimal.NewFromInt(50_000),
	})

	assert.Equal(t, "12500", got.NetVAT.String())
	assert.False(t, got.IsRefundable)
}

func TestService_Breakdown(t *testing.T) {
	s, _ := newService(t, profile.Static{})

	expense(t, s, "100", "Rent")
	expense(t, s, "300", "Salaries")
	expense(t, s, "50", "Rent")

	got := s.Breakdown()
	require.Len(t, got.Expenses, 2)
	assert.Equal(t, "Salaries", got.Expenses[0].Category)
	assert.Equal(t, "Rent", got.Expenses[1].Category)
	assert.Equal(t, "150", got.Expenses[1].Amount.String())
	assert.Equal(t, 2, got.Expenses[1].Count)
	assert.Empty(t, got.Revenue)
}

func TestService_Ratios(t *testing.T) {
	s, _ := newService(t, profile.Static{})

	revenue(t, s, "200", ledger.IncomeQualifying)
	expense(t, s, "50", "Rent")

	got := s.Ratios()
	assert.Equal(t, "75", got.ProfitMarginPercent.String())
	assert.Equal(t, "25", got.ExpenseRatioPercent.String())
	assert.Equal(t, "100", got.QualifyingSharePercent.String())
}
