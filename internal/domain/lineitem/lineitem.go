// Package lineitem defines the invoice line item model, the ordered store
// that owns line items during a session, and the totals derived from them.
package lineitem

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind determines how an item affects the total. The amount itself is never signed.
type Kind string

const (
	KindCharge   Kind = "charge"
	KindDiscount Kind = "discount"
)

// ParseKind maps user input to a Kind. "regular" is accepted as a charge.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "charge", "regular":
		return KindCharge, true
	case "discount":
		return KindDiscount, true
	default:
		return "", false
	}
}

// DefaultTitle is the label shown for an item whose title is empty.
func (k Kind) DefaultTitle() string {
	if k == KindDiscount {
		return "Discount"
	}
	return "Item"
}

// LineItem is one billable or discountable entry on the invoice.
type LineItem struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
	Kind   Kind            `json:"kind"`
}

// DisplayTitle returns the title, falling back to the kind's default label.
func (li LineItem) DisplayTitle() string {
	if strings.TrimSpace(li.Title) == "" {
		return li.Kind.DefaultTitle()
	}
	return li.Title
}

// IsDiscount reports whether the item reduces the total.
func (li LineItem) IsDiscount() bool {
	return li.Kind == KindDiscount
}

// Field names accepted by Store.Update.
const (
	FieldTitle  = "title"
	FieldAmount = "amount"
	FieldKind   = "kind"
)

// Bounds on a parsed amount. Formatting cost grows with the exponent, so
// exponent notation must not reach the store unbounded.
const (
	maxIntegerDigits  = 12
	maxFractionDigits = 8
)

// ParseAmount converts raw user input into a non-negative amount.
// Empty, non-numeric, and negative input all yield zero, as does input with
// more than maxIntegerDigits integer digits or nothing significant within
// maxFractionDigits decimal places. Finer input is rounded to
// maxFractionDigits.
func ParseAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.Sign() <= 0 {
		return decimal.Zero
	}

	// Magnitude from the coefficient length and exponent, without rescaling.
	exp := int64(d.Exponent())
	magnitude := int64(d.NumDigits()) + exp
	if magnitude > maxIntegerDigits || magnitude < -maxFractionDigits {
		return decimal.Zero
	}
	if exp < -maxFractionDigits {
		d = d.Round(maxFractionDigits)
	}
	return d
}
