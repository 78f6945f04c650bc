package models

import (
	"gorm.io/gorm"
)

// Category represents a product category
type Category struct {
	gorm.Model
	Name          string `gorm:"uniqueIndex;not null" json:"name"`
	Slug          string `gorm:"uniqueIndex;not null" json:"slug"`
	Description   string `json:"description"`
	Image         string `json:"image"`
	ImagePublicID string `json:"-"`
	IsListed      bool   `json:"isListed" gorm:"default:true"`
	ProductCount  int64  `gorm:"-" json:"productCount"`
}
