// Package aggregate derives financial figures from a ledger snapshot. Every
// function is pure and never modifies its input.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
)

var hundred = decimal.NewFromInt(100)

const uncategorized = "Uncategorized"

// Summary is recomputed from the ledger on demand and never stored.
//
// NetIncome = TotalRevenue - TotalExpenses and
// TotalRevenue = QualifyingIncome + NonQualifyingIncome + UnclassifiedIncome.
type Summary struct {
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	TotalExpenses       decimal.Decimal `json:"totalExpenses"`
	NetIncome           decimal.Decimal `json:"netIncome"`
	QualifyingIncome    decimal.Decimal `json:"qualifyingIncome"`
	NonQualifyingIncome decimal.Decimal `json:"nonQualifyingIncome"`
	UnclassifiedIncome  decimal.Decimal `json:"unclassifiedIncome"`
	RevenueCount        int             `json:"revenueCount"`
	ExpenseCount        int             `json:"expenseCount"`
	LastUpdatedRevision uint64          `json:"lastUpdatedRevision"`
}

// Ratios are financial-health indicators in percent. All are 0 without revenue.
type Ratios struct {
	ProfitMarginPercent    decimal.Decimal `json:"profitMarginPercent"`
	ExpenseRatioPercent    decimal.Decimal `json:"expenseRatioPercent"`
	QualifyingSharePercent decimal.Decimal `json:"qualifyingSharePercent"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

func TotalRevenue(entries []ledger.RevenueEntry) decimal.Decimal {
	return sumRevenue(entries, func(ledger.RevenueEntry) bool { return true })
}

func TotalExpenses(entries []ledger.ExpenseEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}

	return total
}

func QualifyingIncome(entries []ledger.RevenueEntry) decimal.Decimal {
	return sumRevenue(entries, func(e ledger.RevenueEntry) bool { return e.IncomeType == ledger.IncomeQualifying })
}

func NonQualifyingIncome(entries []ledger.RevenueEntry) decimal.Decimal {
	return sumRevenue(entries, func(e ledger.RevenueEntry) bool { return e.IncomeType == ledger.IncomeNonQualifying })
}

// UnclassifiedIncome is revenue without a Free Zone classification. It counts
// toward neither qualifying nor non-qualifying income.
func UnclassifiedIncome(entries []ledger.RevenueEntry) decimal.Decimal {
	return sumRevenue(entries, func(e ledger.RevenueEntry) bool { return e.IncomeType == ledger.IncomeUnclassified })
}

// NonQualifyingPercentage is non-qualifying income as a share of all revenue,
// unclassified revenue included. It is 0 when there is no revenue.
func NonQualifyingPercentage(entries []ledger.RevenueEntry) decimal.Decimal {
	return Percentage(NonQualifyingIncome(entries), TotalRevenue(entries))
}

// Percentage returns part/whole*100, or 0 when whole is 0.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}

	return part.Div(whole).Mul(hundred)
}

func Summarize(snap ledger.Snapshot) Summary {
	s := Summary{
		RevenueCount:        len(snap.Revenues),
		ExpenseCount:        len(snap.Expenses),
		LastUpdatedRevision: snap.Revision,
		QualifyingIncome:    decimal.Zero,
		NonQualifyingIncome: decimal.Zero,
		UnclassifiedIncome:  decimal.Zero,
	}

	for _, e := range snap.Revenues {
		switch e.IncomeType {
		case ledger.IncomeQualifying:
			s.QualifyingIncome = s.QualifyingIncome.Add(e.Amount)
		case ledger.IncomeNonQualifying:
			s.NonQualifyingIncome = s.NonQualifyingIncome.Add(e.Amount)
		default:
			s.UnclassifiedIncome = s.UnclassifiedIncome.Add(e.Amount)
		}
	}

	s.TotalRevenue = s.QualifyingIncome.Add(s.NonQualifyingIncome).Add(s.UnclassifiedIncome)
	s.TotalExpenses = TotalExpenses(snap.Expenses)
	s.NetIncome = s.TotalRevenue.Sub(s.TotalExpenses)

	return s
}

func HealthRatios(s Summary) Ratios {
	return Ratios{
		ProfitMarginPercent:    Percentage(s.NetIncome, s.TotalRevenue),
		ExpenseRatioPercent:    Percentage(s.TotalExpenses, s.TotalRevenue),
		QualifyingSharePercent: Percentage(s.QualifyingIncome, s.TotalRevenue),
	}
}

// RevenueByCategory groups revenue by category, largest amount first.
func RevenueByCategory(entries []ledger.RevenueEntry) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)
	for _, e := range entries {
		addToCategory(totals, e.Category, e.Amount)
	}

	return sortedTotals(totals)
}

// ExpensesByCategory groups expenses by category, largest amount first.
func ExpensesByCategory(entries []ledger.ExpenseEntry) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)
	for _, e := range entries {
		addToCategory(totals, e.Category, e.Amount)
	}

	return sortedTotals(totals)
}

func sumRevenue(entries []ledger.RevenueEntry, keep func(ledger.RevenueEntry) bool) decimal.Decimal {
	total := decimal.Zero

	for _, e := range entries {
		if keep(e) {
			total = total.Add(e.Amount)
		}
	}

	return total
}

func addToCategory(totals map[string]*CategoryTotal, category string, amount decimal.Decimal) {
	if category == "" {
		category = uncategorized
	}

	ct, ok := totals[category]
	if !ok {
		ct = &CategoryTotal{Category: category, Amount: decimal.Zero}
		totals[category] = ct
	}

	ct.Amount = ct.Amount.Add(amount)
	ct.Count++
}

func sortedTotals(totals map[string]*CategoryTotal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}

	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}

		return cmp.Compare(a.Category, b.Category)
	})

	return out
}
