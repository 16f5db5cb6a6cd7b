// Package profile holds the company setup profile: the Free Zone facts the
// CIT calculation depends on.
package profile

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

type FreeZoneIncome struct {
	Qualifying decimal.Decimal `json:"qualifying"`
}

type Profile struct {
	IsQFZP         bool           `json:"isQFZP"`
	FreeZoneIncome FreeZoneIncome `json:"freeZoneIncome"`
}

// QFZPContext is the calculator input derived from the profile.
func (p Profile) QFZPContext() tax.QFZPContext {
	return tax.QFZPContext{
		IsQFZP:                          p.IsQFZP,
		FreeZoneQualifyingIncomeCeiling: p.FreeZoneIncome.Qualifying,
	}
}

//go:generate mockgen -source=profile.go -destination=profile_mock.go -package=profile
type Provider interface {
	Profile(ctx context.Context) (Profile, error)
}

// Static serves a fixed profile, typically one built from configuration.
type Static Profile

func (s Static) Profile(context.Context) (Profile, error) {
	return Profile(s), nil
}
