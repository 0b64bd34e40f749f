package invoice

import "github.com/shopspring/decimal"

// FormatMoney renders an amount with exactly two fraction digits, rounding
// half away from zero. Negative amounts put the sign before the symbol.
// Amounts that round to zero carry no sign.
func FormatMoney(symbol string, d decimal.Decimal) string {
	d = d.Round(2)
	if d.IsNegative() {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}

// FormatDeduction renders a discount figure as a subtraction, e.g. "- ₹1000.00".
func FormatDeduction(symbol string, d decimal.Decimal) string {
	return "- " + FormatMoney(symbol, d)
}
