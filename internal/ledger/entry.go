package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeType classifies revenue for Free Zone analysis.
type IncomeType string

const (
	IncomeUnclassified  IncomeType = ""
	IncomeQualifying    IncomeType = "qualifying"
	IncomeNonQualifying IncomeType = "non-qualifying"
)

// RevenueEntry is a single income line of the ledger.
type RevenueEntry struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date" validate:"required"`
	Category    string          `json:"category,omitempty"`
	IncomeType  IncomeType      `json:"freeZoneIncomeType,omitempty" validate:"omitempty,oneof=qualifying non-qualifying"`
}

// ExpenseEntry is a single cost line of the ledger.
type ExpenseEntry struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
	Category    string          `json:"category" validate:"required"`
	Date        time.Time       `json:"date" validate:"required"`
	Description string          `json:"description,omitempty"`
	Vendor      string          `json:"vendor,omitempty"`
}

type RevenueParams struct {
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Category    string
	IncomeType  IncomeType
}

type ExpenseParams struct {
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
	Description string
	Vendor      string
}

// RevenuePatch is a partial update; nil fields are left unchanged.
// Setting IncomeType to IncomeUnclassified clears the classification.
type RevenuePatch struct {
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
	Category    *string
	IncomeType  *IncomeType
}

type ExpensePatch struct {
	Amount      *decimal.Decimal
	Category    *string
	Date        *time.Time
	Description *string
	Vendor      *string
}

// Snapshot is a consistent, caller-owned copy of the ledger.
type Snapshot struct {
	Revenues []RevenueEntry
	Expenses []ExpenseEntry
	Revision uint64
}

func (p RevenueParams) entry(id string) RevenueEntry {
	return RevenueEntry{
		ID:          id,
		Amount:      p.Amount,
		Description: p.Description,
		Date:        civilDate(p.Date),
		Category:    p.Category,
		IncomeType:  p.IncomeType,
	}
}

func (p ExpenseParams) entry(id string) ExpenseEntry {
	return ExpenseEntry{
		ID:          id,
		Amount:      p.Amount,
		Category:    p.Category,
		Date:        civilDate(p.Date),
		Description: p.Description,
		Vendor:      p.Vendor,
	}
}

func (p RevenuePatch) apply(e RevenueEntry) RevenueEntry {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}

	if p.Description != nil {
		e.Description = *p.Description
	}

	if p.Date != nil {
		e.Date = civilDate(*p.Date)
	}

	if p.Category != nil {
		e.Category = *p.Category
	}

	if p.IncomeType != nil {
		e.IncomeType = *p.IncomeType
	}

	return e
}

func (p ExpensePatch) apply(e ExpenseEntry) ExpenseEntry {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}

	if p.Category != nil {
		e.Category = *p.Category
	}

	if p.Date != nil {
		e.Date = civilDate(*p.Date)
	}

	if p.Description != nil {
		e.Description = *p.Description
	}

	if p.Vendor != nil {
		e.Vendor = *p.Vendor
	}

	return e
}

// civilDate drops the clock part; entries carry calendar dates only.
func civilDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
