package utils

import (
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/config"
)

// OrderTotals is the price breakdown stored on an order
type OrderTotals struct {
	ItemsPrice     decimal.Decimal `json:"itemsPrice"`
	TaxPrice       decimal.Decimal `json:"taxPrice"`
	ShippingPrice  decimal.Decimal `json:"shippingPrice"`
	CouponDiscount decimal.Decimal `json:"couponDiscount"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
}

// ShippingCharge is free at or above the configured threshold
func ShippingCharge(itemsPrice decimal.Decimal) decimal.Decimal {
	cfg := config.AppConfig
	if !itemsPrice.IsPositive() || itemsPrice.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		return decimal.Zero
	}
	return cfg.ShippingCharge
}

// Tax applies the configured rate
func Tax(itemsPrice decimal.Decimal) decimal.Decimal {
	return itemsPrice.Mul(config.AppConfig.TaxRate).Round(2)
}

// CalculateTotals prices an order. The coupon discount is capped at the
// items price and the total is never negative.
func CalculateTotals(itemsPrice, couponDiscount decimal.Decimal) OrderTotals {
	if couponDiscount.GreaterThan(itemsPrice) {
		couponDiscount = itemsPrice
	}
	totals := OrderTotals{
		ItemsPrice:     itemsPrice,
		TaxPrice:       Tax(itemsPrice),
		ShippingPrice:  ShippingCharge(itemsPrice),
		CouponDiscount: couponDiscount,
	}
	totals.TotalPrice = totals.ItemsPrice.Add(totals.TaxPrice).Add(totals.ShippingPrice).Sub(couponDiscount)
	if totals.TotalPrice.IsNegative() {
		totals.TotalPrice = decimal.Zero
	}
	return totals
}

// ToPaise converts rupees to the integer paise Razorpay expects
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
