package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralOffer sets the wallet rewards paid when a referral code is used
type ReferralOffer struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"not null" json:"name"`
	ReferrerReward decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"referrerReward"`
	RefereeReward  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"refereeReward"`
	StartDate      time.Time       `gorm:"not null" json:"startDate"`
	EndDate        time.Time       `gorm:"not null" json:"endDate"`
	IsActive       bool            `gorm:"default:true" json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ActiveAt reports whether the offer applies at time now
func (r ReferralOffer) ActiveAt(now time.Time) bool {
	return r.IsActive && !now.Before(r.StartDate) && !now.After(r.EndDate)
}

// Overlaps reports whether the offer's window intersects [start, end]
func (r ReferralOffer) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !start.After(r.EndDate)
}
