package lineitem

import (
	"slices"
	"testing"

	"github.com/shopspring/decimal"
)

func item(kind Kind, amount string) LineItem {
	return LineItem{Kind: kind, Amount: decimal.RequireFromString(amount)}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name      string
		items     []LineItem
		subtotal  string
		discounts string
		total     string
	}{
		{
			name:      "empty",
			items:     nil,
			subtotal:  "0",
			discounts: "0",
			total:     "0",
		},
		{
			name:      "rent with loyalty discount",
			items:     []LineItem{item(KindCharge, "15000"), item(KindDiscount, "1000")},
			subtotal:  "15000",
			discounts: "1000",
			total:     "14000",
		},
		{
			name:      "over-discounted stays negative",
			items:     []LineItem{item(KindCharge, "500"), item(KindDiscount, "800")},
			subtotal:  "500",
			discounts: "800",
			total:     "-300",
		},
		{
			name:      "no float drift",
			items:     []LineItem{item(KindCharge, "0.1"), item(KindCharge, "0.2")},
			subtotal:  "0.3",
			discounts: "0",
			total:     "0.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.items)
			assertDecimal(t, "subtotal", got.Subtotal, tt.subtotal)
			assertDecimal(t, "discount total", got.DiscountTotal, tt.discounts)
			assertDecimal(t, "total", got.Total, tt.total)
			if !got.Total.Equal(got.Subtotal.Sub(got.DiscountTotal)) {
				t.Errorf("total %s != subtotal %s - discounts %s", got.Total, got.Subtotal, got.DiscountTotal)
			}
		})
	}
}

func TestComputeTotals_OrderIndependent(t *testing.T) {
	items := []LineItem{
		item(KindCharge, "15000"),
		item(KindDiscount, "250.75"),
		item(KindCharge, "1200.10"),
		item(KindDiscount, "99.99"),
		item(KindCharge, "0.01"),
	}
	want := ComputeTotals(items)

	reversed := slices.Clone(items)
	slices.Reverse(reversed)
	rotated := append(slices.Clone(items[2:]), items[:2]...)

	for _, perm := range [][]LineItem{reversed, rotated} {
		got := ComputeTotals(perm)
		if !got.Subtotal.Equal(want.Subtotal) || !got.DiscountTotal.Equal(want.DiscountTotal) || !got.Total.Equal(want.Total) {
			t.Fatalf("totals changed under reordering: %+v vs %+v", got, want)
		}
	}
}

func TestComputeTotals_FreshAfterMutation(t *testing.T) {
	s := newTestStore()
	s.Add(KindCharge)
	s.Update("item-1", FieldAmount, "100")
	first := ComputeTotals(s.Items())

	s.Update("item-1", FieldAmount, "250")
	second := ComputeTotals(s.Items())

	assertDecimal(t, "first total", first.Total, "100")
	assertDecimal(t, "second total", second.Total, "250")
}
