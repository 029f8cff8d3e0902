package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

type CartLineItem struct {
	ID       int64
	Product  Product
	Quantity int
}

// WithinStock reports whether q is an allowed quantity for the line item.
func (li CartLineItem) WithinStock(q int) bool {
	return q >= 1 && q <= li.Product.Stock
}

// A CartSnapshot is an immutable copy of the line-item sequence taken
// before an optimistic mutation.
type CartSnapshot struct {
	items []CartLineItem
}

func NewCartSnapshot(items []CartLineItem) CartSnapshot {
	return CartSnapshot{items: slices.Clone(items)}
}

// Items returns a fresh copy of the captured sequence.
func (s CartSnapshot) Items() []CartLineItem {
	return slices.Clone(s.items)
}

func (s CartSnapshot) Find(id int64) (CartLineItem, bool) {
	for _, li := range s.items {
		if li.ID == id {
			return li, true
		}
	}
	return CartLineItem{}, false
}

type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// FreeShipping reports whether the shipping line is zero.
func (t Totals) FreeShipping() bool {
	return t.Shipping.IsZero()
}

// Format renders every amount with two decimal places for display.
func (t Totals) Format() (subtotal, shipping, tax, total string) {
	return t.Subtotal.StringFixed(2),
		t.Shipping.StringFixed(2),
		t.Tax.StringFixed(2),
		t.Total.StringFixed(2)
}
