package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestShippingCharge(t *testing.T) {
	tests := []struct {
		name       string
		itemsPrice string
		want       string
	}{
		{"empty order", "0", "0"},
		{"below threshold", "999.99", "50"},
		{"at threshold", "1000", "0"},
		{"above threshold", "2500", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, d(tt.want).Equal(ShippingCharge(d(tt.itemsPrice))),
				"got %s", ShippingCharge(d(tt.itemsPrice)))
		})
	}
}

func TestCalculateTotals(t *testing.T) {
	t.Run("adds shipping below threshold", func(t *testing.T) {
		totals := CalculateTotals(d("550"), decimal.Zero)
		assert.True(t, d("50").Equal(totals.ShippingPrice))
		assert.True(t, d("600").Equal(totals.TotalPrice))
	})

	t.Run("coupon is subtracted after shipping is decided", func(t *testing.T) {
		totals := CalculateTotals(d("1200"), d("300"))
		assert.True(t, totals.ShippingPrice.IsZero())
		assert.True(t, d("900").Equal(totals.TotalPrice))
	})

	t.Run("coupon is capped at the items price", func(t *testing.T) {
		totals := CalculateTotals(d("200"), d("500"))
		assert.True(t, d("200").Equal(totals.CouponDiscount))
		assert.True(t, d("50").Equal(totals.TotalPrice))
	})
}
