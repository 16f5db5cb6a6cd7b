package tax

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/taxdesk/internal/aggregate"
)

// CITElections are the user-entered figures and elections of a CIT return.
type CITElections struct {
	TaxAdjustments             decimal.Decimal `json:"taxAdjustments"`
	ExemptIncome               decimal.Decimal `json:"exemptIncome"`
	CarriedForwardLosses       decimal.Decimal `json:"carriedForwardLosses"`
	SmallBusinessReliefClaimed bool            `json:"smallBusinessReliefClaimed"`
	// TaxGroupElection is recorded on the return; it does not change the computation.
	TaxGroupElection bool `json:"taxGroupElection"`
}

// QFZPContext describes the Qualifying Free Zone Person status of the filer.
type QFZPContext struct {
	IsQFZP                          bool            `json:"isQFZP"`
	FreeZoneQualifyingIncomeCeiling decimal.Decimal `json:"freeZoneQualifyingIncomeCeiling"`
}

type CITResult struct {
	NetProfit                  decimal.Decimal `json:"netProfit"`
	AdjustedProfit             decimal.Decimal `json:"adjustedProfit"`
	AllowedLosses              decimal.Decimal `json:"allowedLosses"`
	TaxableIncome              decimal.Decimal `json:"taxableIncome"`
	QualifyingIncome           decimal.Decimal `json:"qualifyingIncome"`
	NonQualifyingIncome        decimal.Decimal `json:"nonQualifyingIncome"`
	CITPayable                 decimal.Decimal `json:"citPayable"`
	EffectiveRatePercent       decimal.Decimal `json:"effectiveRatePercent"`
	SmallBusinessReliefApplied bool            `json:"smallBusinessReliefApplied"`
	TaxGroupElection           bool            `json:"taxGroupElection"`
}

// ComputeCIT maps ledger aggregates, elections and QFZP status to the CIT due.
//
// Losses brought forward may offset at most 75% of adjusted profit. Small
// Business Relief (revenue up to AED 3,000,000) zeroes the liability outright.
// Otherwise 9% applies to the income above AED 375,000: for a QFZP only the
// non-qualifying part above the ceiling counts, qualifying income is taxed at 0%.
func ComputeCIT(s aggregate.Summary, e CITElections, q QFZPContext) CITResult {
	netProfit := s.TotalRevenue.Sub(s.TotalExpenses)
	adjustedProfit := netProfit.Add(e.TaxAdjustments).Sub(e.ExemptIncome)

	maxAllowedLosses := decimal.Max(decimal.Zero, adjustedProfit.Mul(lossOffsetCap))
	allowedLosses := decimal.Min(e.CarriedForwardLosses, maxAllowedLosses)
	taxableIncome := decimal.Max(decimal.Zero, adjustedProfit.Sub(allowedLosses))

	r := CITResult{
		NetProfit:           netProfit,
		AdjustedProfit:      adjustedProfit,
		AllowedLosses:       allowedLosses,
		TaxableIncome:       taxableIncome,
		QualifyingIncome:    decimal.Zero,
		NonQualifyingIncome: decimal.Zero,
		CITPayable:          decimal.Zero,
		TaxGroupElection:    e.TaxGroupElection,
	}

	r.SmallBusinessReliefApplied = e.SmallBusinessReliefClaimed &&
		s.TotalRevenue.LessThanOrEqual(smallBusinessReliefLimit)

	// Outside a Free Zone the split does not apply and the whole taxable income is the base.
	base := taxableIncome

	if q.IsQFZP {
		r.QualifyingIncome = decimal.Min(taxableIncome, decimal.Max(decimal.Zero, q.FreeZoneQualifyingIncomeCeiling))
		r.NonQualifyingIncome = taxableIncome.Sub(r.QualifyingIncome)
		base = r.NonQualifyingIncome
	}

	if !r.SmallBusinessReliefApplied {
		r.CITPayable = taxAboveThreshold(base)
	}

	if taxableIncome.IsPositive() {
		r.EffectiveRatePercent = r.CITPayable.Div(taxableIncome).Mul(hundred)
	} else {
		r.EffectiveRatePercent = decimal.Zero
	}

	return r.rounded()
}

// taxAboveThreshold charges the flat rate on income strictly above the
// zero-rate threshold; the threshold is a floor, not a bracket.
func taxAboveThreshold(income decimal.Decimal) decimal.Decimal {
	if !income.GreaterThan(citZeroRateThreshold) {
		return decimal.Zero
	}

	return income.Sub(citZeroRateThreshold).Mul(citRate)
}

func (r CITResult) rounded() CITResult {
	r.NetProfit = r.NetProfit.Round(moneyPlaces)
	r.AdjustedProfit = r.AdjustedProfit.Round(moneyPlaces)
	r.AllowedLosses = r.AllowedLosses.Round(moneyPlaces)
	r.TaxableIncome = r.TaxableIncome.Round(moneyPlaces)
	r.QualifyingIncome = r.QualifyingIncome.Round(moneyPlaces)
	r.NonQualifyingIncome = r.NonQualifyingIncome.Round(moneyPlaces)
	r.CITPayable = r.CITPayable.Round(moneyPlaces)
	r.EffectiveRatePercent = r.EffectiveRatePercent.Round(moneyPlaces)

	return r
}
