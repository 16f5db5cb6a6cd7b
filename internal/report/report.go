// Package report renders a plain-text tax summary.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MrJamesThe3rd/taxdesk/internal/aggregate"
	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

type Input struct {
	Company     string
	GeneratedAt time.Time
	IsQFZP      bool
	Summary     aggregate.Summary
	DeMinimis   tax.DeMinimisResult
	CIT         tax.CITResult
	// VAT is optional; the section is left out when nil.
	VAT *tax.VATResult
}

// Render writes the report to w. Amounts use English digit grouping.
func Render(w io.Writer, in Input) error {
	r := &renderer{w: w, p: message.NewPrinter(language.English)}

	title := "Tax summary"
	if in.Company != "" {
		title += ": " + in.Company
	}

	r.line("%s", title)
	r.line("Generated %s", in.GeneratedAt.Format(time.DateOnly))

	r.section("Ledger")
	r.money("Total revenue", in.Summary.TotalRevenue)
	r.money("Total expenses", in.Summary.TotalExpenses)
	r.money("Net income", in.Summary.NetIncome)
	r.money("Qualifying income", in.Summary.QualifyingIncome)
	r.money("Non-qualifying income", in.Summary.NonQualifyingIncome)
	r.money("Unclassified income", in.Summary.UnclassifiedIncome)
	r.field("Entries", r.p.Sprintf("%d revenue, %d expense", in.Summary.RevenueCount, in.Summary.ExpenseCount))

	if in.IsQFZP {
		r.section("De Minimis")
		r.money("Non-qualifying revenue", in.DeMinimis.NonQualifyingAmount)
		r.percent("Share of revenue", in.DeMinimis.NonQualifyingPercentage)
		r.field("Status", deMinimisStatus(in.DeMinimis))
	}

	r.section("Corporate Income Tax")
	r.money("Net profit", in.CIT.NetProfit)
	r.money("Adjusted profit", in.CIT.AdjustedProfit)
	r.money("Losses offset", in.CIT.AllowedLosses)
	r.money("Taxable income", in.CIT.TaxableIncome)

	if in.IsQFZP {
		r.money("Qualifying income (0%)", in.CIT.QualifyingIncome)
		r.money("Non-qualifying income", in.CIT.NonQualifyingIncome)
	}

	if in.CIT.SmallBusinessReliefApplied {
		r.field("Small Business Relief", "applied")
	}

	r.money("CIT payable", in.CIT.CITPayable)
	r.percent("Effective rate", in.CIT.EffectiveRatePercent)

	if in.VAT != nil {
		r.section("VAT")
		r.money("Total sales", in.VAT.TotalSales)
		r.money("Output VAT", in.VAT.OutputVAT)
		r.money("Input VAT", in.VAT.InputVAT)

		if !in.VAT.ReverseChargeVAT.IsZero() {
			r.money("Reverse charge", in.VAT.ReverseChargeVAT)
		}

		if in.VAT.IsRefundable {
			r.money("Refund due", in.VAT.NetVAT)
		} else {
			r.money("VAT payable", in.VAT.NetVAT)
		}
	}

	return r.err
}

func deMinimisStatus(d tax.DeMinimisResult) string {
	switch {
	case d.IsCompliant:
		return "within limits"
	case d.ExceedsPercentage && d.ExceedsAmount:
		return "exceeds 5% and AED 5,000,000 limits"
	case d.ExceedsPercentage:
		return "exceeds 5% limit"
	default:
		return "exceeds AED 5,000,000 limit"
	}
}

// renderer keeps the first write error and skips everything after it.
type renderer struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (r *renderer) line(format string, args ...any) {
	if r.err != nil {
		return
	}

	_, r.err = r.p.Fprintf(r.w, format+"\n", args...)
}

func (r *renderer) section(name string) {
	r.line("")
	r.line("%s", name)
}

func (r *renderer) field(label, value string) {
	r.line("  %-26s %s", label, value)
}

func (r *renderer) money(label string, d decimal.Decimal) {
	f, _ := d.Round(2).Float64()
	r.field(label, r.p.Sprintf("AED %.2f", f))
}

func (r *renderer) percent(label string, d decimal.Decimal) {
	f, _ := d.Round(2).Float64()
	r.field(label, fmt.Sprintf("%.2f%%", f))
}
