package tax

import "github.com/shopspring/decimal"

type VATInputs struct {
	StandardRatedSales            decimal.Decimal `json:"standardRatedSales"`
	ZeroRatedSales                decimal.Decimal `json:"zeroRatedSales"`
	ExemptSales                   decimal.Decimal `json:"exemptSales"`
	RecoverablePurchases          decimal.Decimal `json:"recoverablePurchases"`
	NonRecoverablePurchases       decimal.Decimal `json:"nonRecoverablePurchases"`
	IsDesignatedZone              bool            `json:"isDesignatedZone"`
	DesignatedZoneMainlandImports decimal.Decimal `json:"designatedZoneMainlandImports"`
}

// VATResult carries NetVAT as an absolute value; IsRefundable tells whether it
// is a refund claim rather than a liability.
type VATResult struct {
	OutputVAT        decimal.Decimal `json:"outputVAT"`
	InputVAT         decimal.Decimal `json:"inputVAT"`
	NetVAT           decimal.Decimal `json:"netVAT"`
	IsRefundable     bool            `json:"isRefundable"`
	ReverseChargeVAT decimal.Decimal `json:"reverseChargeVAT"`
	TotalSales       decimal.Decimal `json:"totalSales"`
}

// ComputeVAT applies the 5% standard rate. Zero-rated and exempt sales carry no
// output VAT and non-recoverable purchases no input VAT. In a Designated Zone,
// mainland imports are reverse charged: the self-assessed VAT is recoverable
// and is added to input VAT.
func ComputeVAT(in VATInputs) VATResult {
	outputVAT := in.StandardRatedSales.Mul(vatRate)
	inputVAT := in.RecoverablePurchases.Mul(vatRate)

	reverseCharge := decimal.Zero
	if in.IsDesignatedZone {
		reverseCharge = in.DesignatedZoneMainlandImports.Mul(vatRate)
		inputVAT = inputVAT.Add(reverseCharge)
	}

	net := outputVAT.Sub(inputVAT)

	return VATResult{
		OutputVAT:        outputVAT.Round(moneyPlaces),
		InputVAT:         inputVAT.Round(moneyPlaces),
		NetVAT:           net.Abs().Round(moneyPlaces),
		IsRefundable:     net.IsNegative(),
		ReverseChargeVAT: reverseCharge.Round(moneyPlaces),
		TotalSales:       in.StandardRatedSales.Add(in.ZeroRatedSales).Add(in.ExemptSales).Round(moneyPlaces),
	}
}
