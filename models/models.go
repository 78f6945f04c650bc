package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the buyer account as seen by the store. Credentials and login
// state are owned by the auth service; this service only reads TokenVersion.
type User struct {
	gorm.Model
	Name          string    `json:"name"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone         string    `json:"phone"`
	IsBlocked     bool      `json:"isBlocked" gorm:"default:false"`
	TokenVersion  int       `json:"-" gorm:"default:0"`
	ReferralCode  *string   `gorm:"uniqueIndex" json:"referralCode,omitempty"`
	ReferredByID  *uint     `json:"referredBy,omitempty"`
	ReferralCount int       `json:"referralCount" gorm:"default:0"`
	Addresses     []Address `json:"addresses,omitempty" gorm:"foreignKey:UserID"`
	Wallet        *Wallet   `json:"wallet,omitempty" gorm:"foreignKey:UserID"`
}

// Admin represents an administrator in the system
type Admin struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	IsActive bool   `json:"isActive" gorm:"default:true"`
}

// Review is one rating per user and product
type Review struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_reviews_user_product;not null" json:"userId"`
	User        User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	ProductID   uint      `gorm:"uniqueIndex:idx_reviews_user_product;not null;index" json:"productId"`
	Rating      int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
