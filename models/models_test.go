package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProductStock(t *testing.T) {
	p := &Product{Sizes: []ProductSize{{Size: SizeS, Stock: 2}, {Size: SizeL, Stock: 5}}}
	assert.NoError(t, p.BeforeSave(nil))
	assert.Equal(t, 7, p.TotalStock)

	size, ok := p.FindSize(SizeL)
	assert.True(t, ok)
	size.Stock = 1
	assert.Equal(t, 1, p.Sizes[1].Stock)

	_, ok = p.FindSize(SizeXL)
	assert.False(t, ok)

	untouched := &Product{TotalStock: 9}
	assert.NoError(t, untouched.BeforeSave(nil))
	assert.Equal(t, 9, untouched.TotalStock)
}

func TestMainImage(t *testing.T) {
	assert.Equal(t, "", (&Product{}).MainImage())
	p := &Product{Images: []ProductImage{{URL: "2.jpg", Position: 2}, {URL: "0.jpg", Position: 0}, {URL: "1.jpg", Position: 1}}}
	assert.Equal(t, "0.jpg", p.MainImage())
}

func TestOfferWindow(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	w := OfferWindow{DiscountType: DiscountTypePercentage, DiscountValue: dec("15"), StartDate: start, EndDate: end, IsActive: true}

	assert.True(t, w.ActiveAt(start))
	assert.True(t, w.ActiveAt(end))
	assert.False(t, w.ActiveAt(end.Add(time.Second)))

	inactive := w
	inactive.IsActive = false
	assert.False(t, inactive.ActiveAt(start.AddDate(0, 0, 3)))

	assert.True(t, w.Overlaps(end, end.AddDate(0, 0, 5)))
	assert.False(t, w.Overlaps(end.Add(time.Second), end.AddDate(0, 1, 0)))

	assert.True(t, dec("149.85").Equal(w.DiscountOn(dec("999"))))

	fixed := OfferWindow{DiscountType: DiscountTypeFixed, DiscountValue: dec("500")}
	assert.True(t, dec("300").Equal(fixed.DiscountOn(dec("300"))))
}

func TestCouponValidate(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	base := Coupon{
		DiscountType:  DiscountTypePercentage,
		DiscountValue: dec("20"),
		MinPurchase:   dec("500"),
		StartDate:     now.AddDate(0, 0, -1),
		EndDate:       now.AddDate(0, 0, 1),
		IsActive:      true,
	}

	tests := []struct {
		name   string
		mutate func(c *Coupon)
		amount string
		want   error
	}{
		{"valid", func(c *Coupon) {}, "600", nil},
		{"inactive", func(c *Coupon) { c.IsActive = false }, "600", ErrCouponInactive},
		{"not started", func(c *Coupon) { c.StartDate = now.Add(time.Hour) }, "600", ErrCouponNotStarted},
		{"expired", func(c *Coupon) { c.EndDate = now.Add(-time.Hour) }, "600", ErrCouponExpired},
		{"used up", func(c *Coupon) { c.UsageLimit, c.UsageCount = 2, 2 }, "600", ErrCouponUsageLimit},
		{"unlimited usage", func(c *Coupon) { c.UsageCount = 99 }, "600", nil},
		{"below minimum", func(c *Coupon) {}, "499.99", ErrCouponMinPurchase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Equal(t, tt.want, c.Validate(now, dec(tt.amount)))
		})
	}
}

func TestCouponDiscountFor(t *testing.T) {
	pct := Coupon{DiscountType: DiscountTypePercentage, DiscountValue: dec("20"), MaxDiscount: dec("150")}
	assert.True(t, dec("100").Equal(pct.DiscountFor(dec("500"))))
	assert.True(t, dec("150").Equal(pct.DiscountFor(dec("2000"))))

	fixed := Coupon{DiscountType: DiscountTypeFixed, DiscountValue: dec("250")}
	assert.True(t, dec("200").Equal(fixed.DiscountFor(dec("200"))))
}

func TestOrderHelpers(t *testing.T) {
	o := &Order{
		PaymentMethod: PaymentMethodWallet,
		IsPaid:        true,
		OrderItems: []OrderItem{
			{Status: ItemStatusActive, Price: dec("250"), Quantity: 2},
			{Status: ItemStatusCancelled, Price: dec("100"), Quantity: 1},
		},
	}
	assert.True(t, o.IsPrepaid())
	assert.Len(t, o.ActiveItems(), 1)
	assert.True(t, dec("500").Equal(o.OrderItems[0].LineTotal()))

	cod := &Order{PaymentMethod: PaymentMethodCOD, IsPaid: true}
	assert.False(t, cod.IsPrepaid())
}
