package valuation

import "github.com/shopspring/decimal"

// round2 rounds half away from zero to 2 decimal places.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// round1 rounds half away from zero to 1 decimal place.
func round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}
