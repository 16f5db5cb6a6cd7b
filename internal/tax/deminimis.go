package tax

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/taxdesk/internal/aggregate"
	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
)

// DeMinimisResult reports both Free Zone De Minimis tests separately so
// callers can explain which one failed.
type DeMinimisResult struct {
	NonQualifyingAmount     decimal.Decimal `json:"nonQualifyingAmount"`
	NonQualifyingPercentage decimal.Decimal `json:"nonQualifyingPercentage"`
	ExceedsPercentage       bool            `json:"exceedsPercentage"`
	ExceedsAmount           bool            `json:"exceedsAmount"`
	IsCompliant             bool            `json:"isCompliant"`
}

// EvaluateDeMinimis applies the 5% and AED 5,000,000 limits. Both are strict:
// income exactly at a limit is still compliant. The limits are tested on the
// exact share; the reported percentage is rounded to 2 places.
func EvaluateDeMinimis(totalRevenue, nonQualifying decimal.Decimal) DeMinimisResult {
	pct := aggregate.Percentage(nonQualifying, totalRevenue)

	r := DeMinimisResult{
		NonQualifyingAmount:     nonQualifying,
		NonQualifyingPercentage: pct.Round(moneyPlaces),
		ExceedsPercentage:       pct.GreaterThan(deMinimisPercentLimit),
		ExceedsAmount:           nonQualifying.GreaterThan(deMinimisAmountLimit),
	}
	r.IsCompliant = !r.ExceedsPercentage && !r.ExceedsAmount

	return r
}

func EvaluateDeMinimisEntries(entries []ledger.RevenueEntry) DeMinimisResult {
	return EvaluateDeMinimis(aggregate.TotalRevenue(entries), aggregate.NonQualifyingIncome(entries))
}
