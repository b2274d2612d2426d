// Package charge prices collection and recycling activity under a billing model.
// Every function is pure; amounts are not rounded here.
package charge

import (
	"errors"

	"github.com/railzwaylabs/wastebill/internal/billingmodel/domain"
	"github.com/shopspring/decimal"
)

var ErrNegativeWeight = errors.New("negative_weight")

// Validate rejects weights the calculator is not defined for.
func Validate(weightKg decimal.Decimal) error {
	if weightKg.IsNegative() {
		return ErrNegativeWeight
	}
	return nil
}

// Charge returns the amount owed for a single collection of weightKg.
func Charge(pricing domain.Pricing, weightKg decimal.Decimal) decimal.Decimal {
	switch p := pricing.(type) {
	case domain.WeightBased:
		return weightKg.Mul(p.RatePerKg)
	case domain.FlatFee:
		return p.MonthlyFee
	case domain.Hybrid:
		return p.BaseFee.Add(weightKg.Mul(p.AdditionalRatePerKg))
	default:
		return decimal.Zero
	}
}

// Payback returns the recycling credit for weightKg of category. Categories without
// a configured rate earn nothing.
func Payback(rates domain.PaybackRates, category domain.WasteCategory, weightKg decimal.Decimal) decimal.Decimal {
	rate, ok := rates[category]
	if !ok {
		return decimal.Zero
	}
	return weightKg.Mul(rate)
}

// Net is what an invoice bills: charges less credits, floored at zero.
func Net(charges, credits decimal.Decimal) decimal.Decimal {
	net := charges.Sub(credits)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}
