package charge

import (
	"testing"

	"github.com/railzwaylabs/wastebill/internal/billingmodel/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestChargeWeightBased(t *testing.T) {
	pricing := domain.WeightBased{RatePerKg: d("12.5")}

	for _, weight := range []string{"0", "1", "3.2", "1000"} {
		w := d(weight)
		assert.True(t, Charge(pricing, w).Equal(w.Mul(d("12.5"))), "weight %s", weight)
	}
	assert.True(t, Charge(domain.WeightBased{}, d("40")).IsZero(), "unset rate charges nothing")
}

func TestChargeFlatFeeIgnoresWeight(t *testing.T) {
	pricing := domain.FlatFee{MonthlyFee: d("1500")}

	assert.True(t, Charge(pricing, d("0")).Equal(d("1500")))
	assert.True(t, Charge(pricing, d("250.75")).Equal(d("1500")))
}

func TestChargeHybrid(t *testing.T) {
	pricing := domain.Hybrid{BaseFee: d("200"), AdditionalRatePerKg: d("4.25")}

	assert.True(t, Charge(pricing, d("0")).Equal(d("200")), "base fee applies at zero weight")
	assert.True(t, Charge(pricing, d("10")).Equal(d("242.5")))
}

func TestChargeUnknownPricing(t *testing.T) {
	assert.True(t, Charge(nil, d("10")).IsZero())
}

func TestPayback(t *testing.T) {
	rates := domain.PaybackRates{domain.CategoryPlastic: d("8"), domain.CategoryGlass: d("2.5")}

	assert.True(t, Payback(rates, domain.CategoryPlastic, d("3")).Equal(d("24")))
	assert.True(t, Payback(rates, domain.CategoryGlass, d("0.4")).Equal(d("1")))
	assert.True(t, Payback(rates, domain.CategoryMetal, d("10")).IsZero())
	assert.True(t, Payback(nil, domain.CategoryMetal, d("10")).IsZero())
}

func TestNetNeverNegative(t *testing.T) {
	cases := []struct{ charges, credits, want string }{
		{"100", "40", "60"},
		{"100", "100", "0"},
		{"40", "100", "0"},
		{"0", "0", "0"},
	}
	for _, tc := range cases {
		got := Net(d(tc.charges), d(tc.credits))
		assert.True(t, got.Equal(d(tc.want)), "%s - %s = %s", tc.charges, tc.credits, got)
		assert.False(t, got.IsNegative())
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(d("0")))
	assert.ErrorIs(t, Validate(d("-0.1")), ErrNegativeWeight)
}
