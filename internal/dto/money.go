// Package dto defines the JSON shapes exchanged over HTTP.
package dto

import "github.com/shopspring/decimal"

// Money renders an amount as a JSON number with two decimals of precision.
func Money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
