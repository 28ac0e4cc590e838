package model

import "github.com/shopspring/decimal"

// CalculationMethod tells whether VAT was added on top or extracted from the amount
type CalculationMethod string

const (
	MethodTaxExclusive CalculationMethod = "tax_exclusive"
	MethodTaxInclusive CalculationMethod = "tax_inclusive"
)

// TaxCalculation is the breakdown produced for an order. Amounts are unrounded;
// call Rounded at the presentation boundary.
type TaxCalculation struct {
	BaseAmount         decimal.Decimal   `json:"base_amount"`
	VATRate            decimal.Decimal   `json:"vat_rate"`
	VATAmount          decimal.Decimal   `json:"vat_amount"`
	TaxInclusiveAmount *decimal.Decimal  `json:"tax_inclusive_amount,omitempty"`
	CalculationMethod  CalculationMethod `json:"calculation_method"`
	IsExempt           bool              `json:"is_exempt"`
}

// Total is what the buyer pays. For tax-inclusive results it is the original
// inclusive amount, so rounding the parts never moves it.
func (t TaxCalculation) Total() decimal.Decimal {
	if t.CalculationMethod == MethodTaxInclusive && t.TaxInclusiveAmount != nil {
		return *t.TaxInclusiveAmount
	}
	return t.BaseAmount.Add(t.VATAmount)
}

// Rounded applies banker's rounding to every money field
func (t TaxCalculation) Rounded(places int32) TaxCalculation {
	out := t
	out.BaseAmount = t.BaseAmount.RoundBank(places)
	out.VATAmount = t.VATAmount.RoundBank(places)
	if t.TaxInclusiveAmount != nil {
		v := t.TaxInclusiveAmount.RoundBank(places)
		out.TaxInclusiveAmount = &v
	}
	return out
}
