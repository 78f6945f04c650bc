package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the only store of a user's balance. Every change goes through a
// WalletTransaction written in the same database transaction.
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `json:"userId" gorm:"uniqueIndex;not null"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:numeric(12,2);not null;default:0;check:balance >= 0"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// WalletTransaction is an entry in the wallet ledger. Reference is unique, so
// a refund keyed on an order item can be written at most once.
type WalletTransaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	WalletID     uint            `gorm:"index;not null" json:"walletId"`
	Type         string          `gorm:"not null" json:"type"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"balanceAfter"`
	Description  string          `json:"description"`
	OrderID      *uint           `gorm:"index" json:"orderId,omitempty"`
	OrderItemID  *uint           `json:"orderItemId,omitempty"`
	Reference    string          `gorm:"uniqueIndex;not null" json:"reference"`
	CreatedAt    time.Time       `gorm:"index" json:"createdAt"`
}

// TransactionType constants
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)
