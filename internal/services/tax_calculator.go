package services

import (
	"pettycash/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// TaxRate is the business tax applied to taxable amounts.
	TaxRate = decimal.RequireFromString("0.05")

	taxMultiplier = decimal.NewFromInt(1).Add(TaxRate)
)

// TaxBreakdown is the result of applying the tax rules to a base amount.
type TaxBreakdown struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTax splits base into subtotal and tax. Amounts round half-up to
// whole currency units. Regime and method must already be valid.
func ComputeTax(base decimal.Decimal, regime models.TaxRegime, method models.TaxMethod) TaxBreakdown {
	if regime != models.TaxRegimeTaxable {
		return TaxBreakdown{Subtotal: base, Tax: decimal.Zero, Total: base}
	}

	if method == models.TaxMethodInclusive {
		// floor((2*base + m) / 2m) is base/m rounded half-up, with a single rounding step
		two := decimal.NewFromInt(2)
		subtotal := base.Mul(two).Add(taxMultiplier).Div(taxMultiplier.Mul(two)).Floor()
		return TaxBreakdown{Subtotal: subtotal, Tax: base.Sub(subtotal), Total: base}
	}

	tax := base.Mul(TaxRate).Round(0)
	return TaxBreakdown{Subtotal: base, Tax: tax, Total: base.Add(tax)}
}
