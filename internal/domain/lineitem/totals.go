package lineitem

import "github.com/shopspring/decimal"

// Totals holds the figures derived from a set of line items.
// Total is Subtotal minus DiscountTotal and is not clamped at zero.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	Total         decimal.Decimal `json:"total"`
}

// ComputeTotals sums charges and discounts. It is pure and order-independent.
func ComputeTotals(items []LineItem) Totals {
	subtotal := decimal.Zero
	discounts := decimal.Zero
	for _, li := range items {
		if li.IsDiscount() {
			discounts = discounts.Add(li.Amount)
		} else {
			subtotal = subtotal.Add(li.Amount)
		}
	}
	return Totals{
		Subtotal:      subtotal,
		DiscountTotal: discounts,
		Total:         subtotal.Sub(discounts),
	}
}
