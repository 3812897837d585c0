// Package pricing computes what a customer pays. Every function is pure: no
// I/O, no clock reads, no delays; time is passed in where it matters.
package pricing

import "github.com/shopspring/decimal"

// Scale is the number of decimal places of every observable amount.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Round rounds half away from zero to Scale places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
