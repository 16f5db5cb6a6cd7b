package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
)

func TestFormatAmount(t *testing.T) {
	type testCase struct {
		name string
		in   string
		want string
	}

	tests := []testCase{
		{name: "zero", in: "0", want: "0.00"},
		{name: "grouped", in: "1234567.5", want: "1,234,567.50"},
		{name: "rounds up into the whole part", in: "9.999", want: "10.00"},
		{name: "negative", in: "-1234.5", want: "-1,234.50"},
		{name: "negative below one", in: "-0.25", want: "-0.25"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatAmount(decimal.RequireFromString(tc.in)))
		})
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount(" 12,500.75 ")
	require.NoError(t, err)
	assert.Equal(t, "12500.75", got.String())

	got, err = ParseAmount("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseAmount("-5")
	assert.Error(t, err)

	_, err = ParseAmount("abc")
	assert.Error(t, err)

	signed, err := ParseSignedAmount("-5")
	require.NoError(t, err)
	assert.Equal(t, "-5", signed.String())
}

func TestTimeframeContains(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	type testCase struct {
		name string
		tf   Timeframe
		date time.Time
		want bool
	}

	tests := []testCase{
		{name: "all time", tf: TimeframeAll, date: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "this month first day", tf: TimeframeThisMonth, date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "this month last day", tf: TimeframeThisMonth, date: time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC), want: true},
		{name: "this month excludes previous", tf: TimeframeThisMonth, date: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), want: false},
		{name: "last month", tf: TimeframeLastMonth, date: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), want: true},
		{name: "this year", tf: TimeframeThisYear, date: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), want: true},
		{name: "last year", tf: TimeframeLastYear, date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "last year excludes this year", tf: TimeframeLastYear, date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tf.Contains(now, tc.date))
		})
	}
}

func TestTimeframeNextWraps(t *testing.T) {
	assert.Equal(t, TimeframeThisMonth, TimeframeAll.Next())
	assert.Equal(t, TimeframeAll, TimeframeLastYear.Next())
}

func TestSelectRows(t *testing.T) {
	batch := ledger.Batch{
		Revenues: []ledger.RevenueParams{{Description: "r0"}, {Description: "r1"}},
		Expenses: []ledger.ExpenseParams{{Description: "e0"}, {Description: "e1"}},
	}

	conflicts := []ledger.Conflict{
		{Kind: ledger.KindRevenue, Index: 1},
		{Kind: ledger.KindExpense, Index: 0},
	}

	got := selectRows(batch, conflicts, map[int]bool{1: true})

	require.Len(t, got.Revenues, 1)
	assert.Equal(t, "r0", got.Revenues[0].Description)
	require.Len(t, got.Expenses, 2)
	assert.Equal(t, "e0", got.Expenses[0].Description)
	assert.Equal(t, "e1", got.Expenses[1].Description)
}
