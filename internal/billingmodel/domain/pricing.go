package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type PricingKind string

const (
	PricingKindWeightBased PricingKind = "WEIGHT_BASED"
	PricingKindFlatFee     PricingKind = "FLAT_FEE"
	PricingKindHybrid      PricingKind = "HYBRID"
)

// Pricing is a closed set: WeightBased, FlatFee and Hybrid are its only members.
type Pricing interface {
	Kind() PricingKind
	isPricing()
}

// WeightBased charges RatePerKg for every kilogram collected.
type WeightBased struct {
	RatePerKg decimal.Decimal `json:"rate_per_kg"`
}

// FlatFee charges MonthlyFee regardless of weight.
type FlatFee struct {
	MonthlyFee decimal.Decimal `json:"monthly_fee"`
}

// Hybrid charges BaseFee plus AdditionalRatePerKg for every kilogram.
type Hybrid struct {
	BaseFee             decimal.Decimal `json:"base_fee"`
	AdditionalRatePerKg decimal.Decimal `json:"additional_rate_per_kg"`
}

func (WeightBased) Kind() PricingKind { return PricingKindWeightBased }
func (FlatFee) Kind() PricingKind     { return PricingKindFlatFee }
func (Hybrid) Kind() PricingKind      { return PricingKindHybrid }

func (WeightBased) isPricing() {}
func (FlatFee) isPricing()     {}
func (Hybrid) isPricing()      {}

func EncodePricing(p Pricing) (PricingKind, []byte, error) {
	if p == nil {
		return "", nil, ErrInvalidPricing
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return "", nil, err
	}
	return p.Kind(), payload, nil
}

func DecodePricing(kind PricingKind, payload []byte) (Pricing, error) {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	switch kind {
	case PricingKindWeightBased:
		var p WeightBased
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s pricing: %w", kind, err)
		}
		return p, nil
	case PricingKindFlatFee:
		var p FlatFee
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s pricing: %w", kind, err)
		}
		return p, nil
	case PricingKindHybrid:
		var p Hybrid
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s pricing: %w", kind, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPricingKind, kind)
	}
}

// ValidatePricing rejects negative rates and fees.
func ValidatePricing(p Pricing) error {
	var amounts []decimal.Decimal
	switch v := p.(type) {
	case WeightBased:
		amounts = []decimal.Decimal{v.RatePerKg}
	case FlatFee:
		amounts = []decimal.Decimal{v.MonthlyFee}
	case Hybrid:
		amounts = []decimal.Decimal{v.BaseFee, v.AdditionalRatePerKg}
	default:
		return ErrInvalidPricing
	}
	for _, amount := range amounts {
		if amount.IsNegative() {
			return ErrInvalidPricing
		}
	}
	return nil
}
