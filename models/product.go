package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sizes a product can be stocked in
const (
	SizeS   = "S"
	SizeM   = "M"
	SizeL   = "L"
	SizeXL  = "XL"
	SizeXXL = "XXL"
	Size3XL = "3XL"
)

// ProductSizes lists the valid sizes in display order
var ProductSizes = []string{SizeS, SizeM, SizeL, SizeXL, SizeXXL, Size3XL}

// MinProductImages is the number of images a product needs when created
const MinProductImages = 3

type Product struct {
	gorm.Model
	Name        string          `gorm:"not null" json:"name"`
	Slug        string          `gorm:"uniqueIndex;not null" json:"slug"`
	Description string          `json:"description"`
	Brand       string          `gorm:"index" json:"brand"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CategoryID  uint            `gorm:"index;not null" json:"categoryId"`
	Category    *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Images      []ProductImage  `json:"images,omitempty" gorm:"foreignKey:ProductID"`
	Sizes       []ProductSize   `json:"sizes,omitempty" gorm:"foreignKey:ProductID"`
	TotalStock  int             `json:"totalStock" gorm:"default:0"`
	IsListed    bool            `json:"isListed" gorm:"default:true"`
	IsFeatured  bool            `json:"isFeatured" gorm:"default:false"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"index;not null" json:"productId"`
	URL       string `gorm:"not null" json:"url"`
	PublicID  string `json:"-"`
	Position  int    `json:"position"`
}

type ProductSize struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"uniqueIndex:idx_product_sizes_product_size;not null" json:"productId"`
	Size      string `gorm:"uniqueIndex:idx_product_sizes_product_size;not null" json:"size"`
	Stock     int    `gorm:"not null;default:0" json:"stock"`
}

// BeforeSave keeps TotalStock equal to the sum of the loaded sizes
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.Sizes != nil {
		p.TotalStock = SumStock(p.Sizes)
	}
	return nil
}

// SumStock adds up stock across sizes
func SumStock(sizes []ProductSize) int {
	total := 0
	for _, s := range sizes {
		total += s.Stock
	}
	return total
}

// FindSize returns the size entry with the given label
func (p *Product) FindSize(size string) (*ProductSize, bool) {
	for i := range p.Sizes {
		if p.Sizes[i].Size == size {
			return &p.Sizes[i], true
		}
	}
	return nil, false
}

// MainImage is the first image by position, or empty
func (p *Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	main := p.Images[0]
	for _, img := range p.Images[1:] {
		if img.Position < main.Position {
			main = img
		}
	}
	return main.URL
}

// IsValidSize reports whether size is one of ProductSizes
func IsValidSize(size string) bool {
	for _, s := range ProductSizes {
		if s == size {
			return true
		}
	}
	return false
}
