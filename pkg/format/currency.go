// Package format renders numeric values for display.
package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// USD converts a non-negative dollar amount into an en-US localized
// currency string with grouping, e.g. 1234.5 -> "$1,234.50".
func USD(v float64) string {
	return usdPrinter.Sprintf("$%v", number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// Quantity renders an estimated purchase quantity at full precision.
// Rounding, if any, is a presentation decision made here and not in the
// purchase arithmetic.
func Quantity(v float64) string {
	return usdPrinter.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(8)))
}
