package tax_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

func TestEvaluateDeMinimis(t *testing.T) {
	type testCase struct {
		name              string
		totalRevenue      string
		nonQualifying     string
		wantPercentage    string
		exceedsPercentage bool
		exceedsAmount     bool
		compliant         bool
	}

	tests := []testCase{
		{
			name:           "AtPercentageThreshold",
			totalRevenue:   "1000000",
			nonQualifying:  "50000",
			wantPercentage: "5",
			compliant:      true,
		},
		{
			// Reported rounded to 5.00 while the limit is tested on the exact share.
			name:              "JustAbovePercentageThreshold",
			totalRevenue:      "1000000",
			nonQualifying:     "50001",
			wantPercentage:    "5",
			exceedsPercentage: true,
		},
		{
			name:           "AtAmountThreshold",
			totalRevenue:   "200000000",
			nonQualifying:  "5000000",
			wantPercentage: "2.5",
			compliant:      true,
		},
		{
			name:           "AboveAmountOnly",
			totalRevenue:   "500000000",
			nonQualifying:  "5000001",
			wantPercentage: "1",
			exceedsAmount:  true,
		},
		{
			name:              "RepeatingShareRounded",
			totalRevenue:      "300000",
			nonQualifying:     "100000",
			wantPercentage:    "33.33",
			exceedsPercentage: true,
		},
		{
			name:              "BothExceeded",
			totalRevenue:      "10000000",
			nonQualifying:     "6000000",
			wantPercentage:    "60",
			exceedsPercentage: true,
			exceedsAmount:     true,
		},
		{
			name:           "NoRevenue",
			totalRevenue:   "0",
			nonQualifying:  "0",
			wantPercentage: "0",
			compliant:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tax.EvaluateDeMinimis(d(tt.totalRevenue), d(tt.nonQualifying))

			assert.Equal(t, tt.nonQualifying, got.NonQualifyingAmount.String())
			assert.Equal(t, tt.wantPercentage, got.NonQualifyingPercentage.String())
			assert.Equal(t, tt.exceedsPercentage, got.ExceedsPercentage)
			assert.Equal(t, tt.exceedsAmount, got.ExceedsAmount)
			assert.Equal(t, tt.compliant, got.IsCompliant)
		})
	}
}

func TestEvaluateDeMinimisEntries_UnclassifiedCountsInDenominator(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := []ledger.RevenueEntry{
		{Amount: d("40"), IncomeType: ledger.IncomeQualifying, Date: day},
		{Amount: d("6"), IncomeType: ledger.IncomeNonQualifying, Date: day},
		{Amount: d("54"), Date: day},
	}

	got := tax.EvaluateDeMinimisEntries(entries)
	assert.Equal(t, "6", got.NonQualifyingPercentage.String())
	assert.True(t, got.ExceedsPercentage)
	assert.False(t, got.IsCompliant)
}
