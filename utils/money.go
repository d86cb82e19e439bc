package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// roundingEpsilon nudges values such as 1.005 (stored as 1.00499999...) over the half-up boundary.
const roundingEpsilon = 2.220446049250313e-16

// Round2 rounds x to 2 decimal places, half-up, with an epsilon against binary floating-point error.
// Halves round toward +Inf, so -0.125 becomes -0.12.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	v := float64((x + roundingEpsilon) * 100)
	r := math.Floor(v)
	if v-r >= 0.5 {
		r++
	}
	return r / 100
}

// SumMoney adds already-rounded amounts exactly, so totals never pick up float drift
// like 0.1 + 0.2 = 0.30000000000000004 and never need a second rounding.
func SumMoney(values ...float64) float64 {
	sum := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.InexactFloat64()
}

// SubMoney returns a - b computed exactly on the decimal representation of both operands.
func SubMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}
