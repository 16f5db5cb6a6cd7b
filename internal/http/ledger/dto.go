package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
)

type revenueRequest struct {
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Date        string            `json:"date"`
	Category    string            `json:"category"`
	IncomeType  ledger.IncomeType `json:"freeZoneIncomeType"`
}

func (req revenueRequest) params() (ledger.RevenueParams, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return ledger.RevenueParams{}, err
	}

	return ledger.RevenueParams{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		Category:    req.Category,
		IncomeType:  req.IncomeType,
	}, nil
}

type expenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Vendor      string          `json:"vendor"`
}

func (req expenseRequest) params() (ledger.ExpenseParams, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return ledger.ExpenseParams{}, err
	}

	return ledger.ExpenseParams{
		Amount:      req.Amount,
		Category:    req.Category,
		Date:        date,
		Description: req.Description,
		Vendor:      req.Vendor,
	}, nil
}

type revenuePatchRequest struct {
	Amount      *decimal.Decimal   `json:"amount,omitempty"`
	Description *string            `json:"description,omitempty"`
	Date        *string            `json:"date,omitempty"`
	Category    *string            `json:"category,omitempty"`
	IncomeType  *ledger.IncomeType `json:"freeZoneIncomeType,omitempty"`
}

func (req revenuePatchRequest) patch() (ledger.RevenuePatch, error) {
	p := ledger.RevenuePatch{
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		IncomeType:  req.IncomeType,
	}

	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return ledger.RevenuePatch{}, err
		}

		p.Date = &date
	}

	return p, nil
}

type expensePatchRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Description *string          `json:"description,omitempty"`
	Vendor      *string          `json:"vendor,omitempty"`
}

func (req expensePatchRequest) patch() (ledger.ExpensePatch, error) {
	p := ledger.ExpensePatch{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Vendor:      req.Vendor,
	}

	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return ledger.ExpensePatch{}, err
		}

		p.Date = &date
	}

	return p, nil
}

// parseDate accepts an ISO date. An empty string is left for ledger
// validation to reject.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", s)
	}

	return t, nil
}

type revenueResponse struct {
	ID          string            `json:"id"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Date        string            `json:"date"`
	Category    string            `json:"category,omitempty"`
	IncomeType  ledger.IncomeType `json:"freeZoneIncomeType,omitempty"`
}

type expenseResponse struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	Vendor      string          `json:"vendor,omitempty"`
}

func toRevenueResponse(e ledger.RevenueEntry) revenueResponse {
	return revenueResponse{
		ID:          e.ID,
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date.Format(time.DateOnly),
		Category:    e.Category,
		IncomeType:  e.IncomeType,
	}
}

func toRevenueResponses(entries []ledger.RevenueEntry) []revenueResponse {
	resp := make([]revenueResponse, len(entries))
	for i, e := range entries {
		resp[i] = toRevenueResponse(e)
	}

	return resp
}

func toExpenseResponse(e ledger.ExpenseEntry) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date.Format(time.DateOnly),
		Description: e.Description,
		Vendor:      e.Vendor,
	}
}

func toExpenseResponses(entries []ledger.ExpenseEntry) []expenseResponse {
	resp := make([]expenseResponse, len(entries))
	for i, e := range entries {
		resp[i] = toExpenseResponse(e)
	}

	return resp
}
