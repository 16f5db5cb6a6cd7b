package report_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/taxdesk/internal/aggregate"
	"github.com/MrJamesThe3rd/taxdesk/internal/report"
	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

func qfzpInput() report.Input {
	summary := aggregate.Summary{
		TotalRevenue:        decimal.NewFromInt(2_000_000),
		TotalExpenses:       decimal.NewFromInt(500_000),
		NetIncome:           decimal.NewFromInt(1_500_000),
		QualifyingIncome:    decimal.NewFromInt(1_950_000),
		NonQualifyingIncome: decimal.NewFromInt(50_000),
		UnclassifiedIncome:  decimal.Zero,
		RevenueCount:        3,
		ExpenseCount:        2,
	}

	qfzp := tax.QFZPContext{IsQFZP: true, FreeZoneQualifyingIncomeCeiling: decimal.NewFromInt(1_000_000)}

	return report.Input{
		Company:     "Acme FZ LLC",
		GeneratedAt: time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC),
		IsQFZP:      true,
		Summary:     summary,
		DeMinimis:   tax.EvaluateDeMinimis(summary.TotalRevenue, summary.NonQualifyingIncome),
		CIT:         tax.ComputeCIT(summary, tax.CITElections{}, qfzp),
	}
}

func TestRender_QFZP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, qfzpInput()))

	out := buf.String()
	assert.Contains(t, out, "Tax summary: Acme FZ LLC")
	assert.Contains(t, out, "Generated 2025-03-31")
	assert.Contains(t, out, "AED 2,000,000.00")
	assert.Contains(t, out, "2 expense")
	assert.Contains(t, out, "De Minimis")
	assert.Contains(t, out, "2.50%")
	assert.Contains(t, out, "within limits")
	assert.Contains(t, out, "AED 11,250.00")
	assert.NotContains(t, out, "VAT")
}

func TestRender_MainlandWithVAT(t *testing.T) {
	in := qfzpInput()
	in.IsQFZP = false
	in.CIT = tax.ComputeCIT(in.Summary, tax.CITElections{SmallBusinessReliefClaimed: true}, tax.QFZPContext{})

	vat := tax.ComputeVAT(tax.VATInputs{
		StandardRatedSales:   decimal.NewFromInt(10_000),
		RecoverablePurchases: decimal.NewFromInt(100_000),
	})
	in.VAT = &vat

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, in))

	out := buf.String()
	assert.NotContains(t, out, "De Minimis")
	assert.Contains(t, out, "Small Business Relief")
	assert.Contains(t, out, "Refund due")
	assert.Contains(t, out, "AED 4,500.00")
}

func TestRender_DeMinimisStatus(t *testing.T) {
	type testCase struct {
		name          string
		nonQualifying int64
		want          string
	}

	tests := []testCase{
		{name: "Percentage", nonQualifying: 200_000, want: "exceeds 5% limit"},
		{name: "Both", nonQualifying: 6_000_000, want: "exceeds 5% and AED 5,000,000 limits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := qfzpInput()
			in.DeMinimis = tax.EvaluateDeMinimis(in.Summary.TotalRevenue, decimal.NewFromInt(tt.nonQualifying))

			var buf bytes.Buffer
			require.NoError(t, report.Render(&buf, in))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_WriteError(t *testing.T) {
	err := report.Render(failingWriter{}, qfzpInput())
	assert.EqualError(t, err, "disk full")
}
