package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment records one Razorpay order created for an Order. A retry after a
// failed attempt creates a new row.
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	OrderID           uint            `gorm:"index;not null" json:"orderId"`
	UserID            uint            `gorm:"index;not null" json:"userId"`
	RazorpayOrderID   string          `gorm:"uniqueIndex;not null" json:"razorpayOrderId"`
	RazorpayPaymentID string          `json:"razorpayPaymentId,omitempty"`
	Amount            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency          string          `gorm:"not null;default:INR" json:"currency"`
	Status            string          `gorm:"not null;default:Pending" json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}
