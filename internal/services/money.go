package services

import "github.com/shopspring/decimal"

// percentOf returns part/whole as a percentage rounded to one decimal.
// A non-positive whole yields 0.
func percentOf(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole)).
		Round(1).
		InexactFloat64()
}

// divCeil splits total into n equal installments, rounding up so the sum
// covers total.
func divCeil(total int64, n int) int64 {
	if n <= 0 || total <= 0 {
		return total
	}
	return decimal.NewFromInt(total).
		Div(decimal.NewFromInt(int64(n))).
		Ceil().
		IntPart()
}
