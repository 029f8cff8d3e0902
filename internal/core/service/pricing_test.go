package service

import (
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name                            string
		items                           []domain.CartLineItem
		subtotal, shipping, tax, total string
	}{
		{
			name:     "Empty",
			subtotal: "0.00", shipping: "50.00", tax: "0.00", total: "50.00",
		},
		{
			name:     "SingleUnitBelowThreshold",
			items:    []domain.CartLineItem{lineItem(1, testProduct(1, "60", 5), 1)},
			subtotal: "60.00", shipping: "50.00", tax: "4.80", total: "114.80",
		},
		{
			name:     "SecondUnitShipsFree",
			items:    []domain.CartLineItem{lineItem(1, testProduct(1, "60", 5), 2)},
			subtotal: "120.00", shipping: "0.00", tax: "9.60", total: "129.60",
		},
		{
			name:     "ExactlyHundredPaysShipping",
			items:    []domain.CartLineItem{lineItem(1, testProduct(1, "25", 5), 4)},
			subtotal: "100.00", shipping: "50.00", tax: "8.00", total: "158.00",
		},
		{
			name: "MixedLines",
			items: []domain.CartLineItem{
				lineItem(1, testProduct(1, "19.99", 5), 3),
				lineItem(2, testProduct(2, "0.10", 5), 1),
			},
			subtotal: "60.07", shipping: "50.00", tax: "4.81", total: "114.88",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal, shipping, tax, total := ComputeTotals(tt.items).Format()
			assert.Equal(t, tt.subtotal, subtotal)
			assert.Equal(t, tt.shipping, shipping)
			assert.Equal(t, tt.tax, tax)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestComputeTotalsIsExact(t *testing.T) {
	items := []domain.CartLineItem{lineItem(1, testProduct(1, "19.99", 5), 3)}

	first := ComputeTotals(items)
	second := ComputeTotals(items)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, "4.7976", first.Tax.String())
	assert.False(t, first.FreeShipping())
}
