package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferWindow is the shared shape of time-boxed offers
type OfferWindow struct {
	Name          string          `gorm:"not null" json:"name"`
	DiscountType  string          `gorm:"not null" json:"discountType"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discountValue"`
	StartDate     time.Time       `gorm:"not null" json:"startDate"`
	EndDate       time.Time       `gorm:"not null" json:"endDate"`
	IsActive      bool            `gorm:"default:true" json:"isActive"`
}

// ActiveAt reports whether the offer applies at time now
func (w OfferWindow) ActiveAt(now time.Time) bool {
	return w.IsActive && !now.Before(w.StartDate) && !now.After(w.EndDate)
}

// Overlaps reports whether the two windows share any instant
func (w OfferWindow) Overlaps(start, end time.Time) bool {
	return !w.StartDate.After(end) && !start.After(w.EndDate)
}

// DiscountOn returns the per-unit discount on price, capped at price
func (w OfferWindow) DiscountOn(price decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch w.DiscountType {
	case DiscountTypePercentage:
		discount = price.Mul(w.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountTypeFixed:
		discount = w.DiscountValue
	}
	if discount.GreaterThan(price) {
		discount = price
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2)
}

type ProductOffer struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProductID uint `gorm:"not null;index" json:"productId"`
	OfferWindow
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CategoryOffer struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	CategoryID uint `gorm:"not null;index" json:"categoryId"`
	OfferWindow
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
