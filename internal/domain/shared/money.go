package shared

import "github.com/shopspring/decimal"

// Tolerance is the rounding slack allowed when comparing currency amounts.
var Tolerance = decimal.New(1, -2)

// RoundMoney rounds to two decimal places
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ApproxEqual reports whether a and b differ by no more than Tolerance
func ApproxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// ExceedsWithTolerance reports whether a > b + Tolerance
func ExceedsWithTolerance(a, b decimal.Decimal) bool {
	return a.GreaterThan(b.Add(Tolerance))
}

// IsSettledAmount reports whether an outstanding amount is zero within Tolerance
func IsSettledAmount(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Tolerance)
}
