package service

import (
	"marketplace/internal/model"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CalculateVAT computes VAT for a base amount at a percentage rate.
//
// If any product is exempt the whole amount is treated as exempt. If any product
// is tax inclusive the base amount is taken to already contain VAT and is split
// into net and VAT parts. Otherwise VAT is added on top. No rounding is applied.
func CalculateVAT(baseAmount, rate decimal.Decimal, products []model.ProductTaxAttributes) model.TaxCalculation {
	if lo.SomeBy(products, func(p model.ProductTaxAttributes) bool { return p.TaxExempt }) {
		return model.TaxCalculation{
			BaseAmount:        baseAmount,
			VATRate:           decimal.Zero,
			VATAmount:         decimal.Zero,
			CalculationMethod: model.MethodTaxExclusive,
			IsExempt:          true,
		}
	}

	if lo.SomeBy(products, func(p model.ProductTaxAttributes) bool { return p.TaxInclusive }) {
		vat := baseAmount.Mul(rate).Div(hundred.Add(rate))
		gross := baseAmount
		return model.TaxCalculation{
			BaseAmount:         baseAmount.Sub(vat),
			VATRate:            rate,
			VATAmount:          vat,
			TaxInclusiveAmount: &gross,
			CalculationMethod:  model.MethodTaxInclusive,
		}
	}

	return model.TaxCalculation{
		BaseAmount:        baseAmount,
		VATRate:           rate,
		VATAmount:         baseAmount.Mul(rate).Div(hundred),
		CalculationMethod: model.MethodTaxExclusive,
	}
}
