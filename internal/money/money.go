// Package money holds the canonical rounding rules for monetary amounts.
//
// Every amount that is stored or compared goes through Round2 as the last
// step of its computation, so recomputing a week yields bit-identical values.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// epsilon nudges values such as 1.005 (stored as 1.00499999...) over the tie.
var epsilon = decimal.New(1, -9)

// Round2 rounds x to 2 decimals, half away from zero, preserving the sign.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	abs := decimal.NewFromFloat(math.Abs(x)).Add(epsilon).Round(2)
	f, _ := abs.Float64()
	if f == 0 {
		return 0
	}
	if x < 0 {
		return -f
	}
	return f
}

// Sum adds values in decimal space and rounds the total once.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Float64()
	return Round2(f)
}

// Percent returns Round2(amount * pct / 100).
func Percent(amount, pct float64) float64 {
	v := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
	f, _ := v.Float64()
	return Round2(f)
}

// IsZero reports whether an amount is below half a cent.
func IsZero(x float64) bool {
	return math.Abs(x) < 0.005
}
