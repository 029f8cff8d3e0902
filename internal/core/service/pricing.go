package service

import (
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	freeShippingAbove = decimal.NewFromInt(100)
	flatShipping      = decimal.NewFromInt(50)
	taxRate           = decimal.RequireFromString("0.08")
)

// ComputeTotals derives the order summary of the given line items.
//
// Shipping is free when the subtotal is strictly above 100, otherwise a flat
// 50. Tax is 8% of the subtotal. Amounts are exact, rounding is left to
// presentation.
func ComputeTotals(items []domain.CartLineItem) domain.Totals {
	subtotal := decimal.Zero
	for _, li := range items {
		line := li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
		subtotal = subtotal.Add(line)
	}

	shipping := flatShipping
	if subtotal.GreaterThan(freeShippingAbove) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(taxRate)

	return domain.Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
