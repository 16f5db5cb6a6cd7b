// Package tax holds the UAE Corporate Income Tax and VAT rules. All functions
// are total over well-formed input: validation happens at the ledger boundary.
package tax

import "github.com/shopspring/decimal"

// Statutory constants.
var (
	citRate                  = decimal.RequireFromString("0.09")
	citZeroRateThreshold     = decimal.NewFromInt(375_000)
	smallBusinessReliefLimit = decimal.NewFromInt(3_000_000)
	lossOffsetCap            = decimal.RequireFromString("0.75")

	deMinimisPercentLimit = decimal.NewFromInt(5)
	deMinimisAmountLimit  = decimal.NewFromInt(5_000_000)

	vatRate = decimal.RequireFromString("0.05")

	hundred = decimal.NewFromInt(100)
)

// moneyPlaces is the precision reported results are rounded to (fils).
const moneyPlaces = 2
