package models

import (
	"time"
)

type Wishlist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_wishlists_user_product;not null" json:"userId"`
	ProductID uint      `gorm:"uniqueIndex:idx_wishlists_user_product;not null" json:"productId"`
	Product   Product   `json:"product" gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `json:"createdAt"`
}
