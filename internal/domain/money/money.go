// Package money holds the rounding rules shared by every ledger figure.
package money

import "github.com/shopspring/decimal"

// Round2 rounds half away from zero to two decimals. The float is first
// converted to its shortest decimal representation, so 0.145 rounds to 0.15
// and 19.995 to 20.00.
func Round2(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}

// Sum adds the values exactly and rounds the result.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	out, _ := total.Round(2).Float64()
	return out
}

// Sub returns round2(a - b).
func Sub(a, b float64) float64 {
	out, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).Float64()
	return out
}

// Mul returns round2(a * b).
func Mul(a, b float64) float64 {
	out, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).Float64()
	return out
}

// Net is the amount left once tax is taken out of a gross figure. It never
// goes below zero.
func Net(gross, hst float64) float64 {
	net := Sub(gross, hst)
	if net < 0 {
		return 0
	}
	return net
}
