package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Discount types shared by coupons and offers
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

var (
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponNotStarted  = errors.New("coupon is not yet valid")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponUsageLimit  = errors.New("coupon usage limit reached")
	ErrCouponMinPurchase = errors.New("order amount is below the coupon minimum")
)

type Coupon struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Code          string          `gorm:"uniqueIndex;not null" json:"code"`
	Description   string          `json:"description"`
	DiscountType  string          `gorm:"not null" json:"discountType"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discountValue"`
	MaxDiscount   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"maxDiscount"`
	MinPurchase   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"minPurchase"`
	StartDate     time.Time       `gorm:"not null" json:"startDate"`
	EndDate       time.Time       `gorm:"not null" json:"endDate"`
	UsageLimit    int             `gorm:"not null;default:0" json:"usageLimit"`
	UsageCount    int             `gorm:"not null;default:0" json:"usageCount"`
	IsActive      bool            `gorm:"default:true" json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Validate checks the coupon against the order amount at time now.
// UsageLimit 0 means unlimited.
func (c *Coupon) Validate(now time.Time, amount decimal.Decimal) error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	if now.Before(c.StartDate) {
		return ErrCouponNotStarted
	}
	if now.After(c.EndDate) {
		return ErrCouponExpired
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return ErrCouponUsageLimit
	}
	if amount.LessThan(c.MinPurchase) {
		return ErrCouponMinPurchase
	}
	return nil
}

// IsValid is Validate as a boolean
func (c *Coupon) IsValid(now time.Time, amount decimal.Decimal) bool {
	return c.Validate(now, amount) == nil
}

// DiscountFor returns the discount on amount, never more than amount
func (c *Coupon) DiscountFor(amount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountTypePercentage:
		discount = amount.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
		if c.MaxDiscount.IsPositive() && discount.GreaterThan(c.MaxDiscount) {
			discount = c.MaxDiscount
		}
	case DiscountTypeFixed:
		discount = c.DiscountValue
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2)
}
