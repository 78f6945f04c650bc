package utils

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"gorm.io/gorm"
)

// Offer sources
const (
	OfferSourceNone     = "none"
	OfferSourceProduct  = "product"
	OfferSourceCategory = "category"
)

// AppliedOffer is the per-unit pricing of a product after offers
type AppliedOffer struct {
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Discount      decimal.Decimal `json:"discount"`
	FinalPrice    decimal.Decimal `json:"finalPrice"`
	Source        string          `json:"source"`
	OfferName     string          `json:"offerName,omitempty"`
}

// BestOffer picks the larger of the product and category discounts.
// Either offer may be nil. Ties go to the product offer.
func BestOffer(price decimal.Decimal, productOffer *models.ProductOffer, categoryOffer *models.CategoryOffer) AppliedOffer {
	applied := AppliedOffer{
		OriginalPrice: price,
		Discount:      decimal.Zero,
		FinalPrice:    price,
		Source:        OfferSourceNone,
	}

	if productOffer != nil {
		if d := productOffer.DiscountOn(price); d.GreaterThan(applied.Discount) {
			applied.Discount = d
			applied.Source = OfferSourceProduct
			applied.OfferName = productOffer.Name
		}
	}
	if categoryOffer != nil {
		if d := categoryOffer.DiscountOn(price); d.GreaterThan(applied.Discount) {
			applied.Discount = d
			applied.Source = OfferSourceCategory
			applied.OfferName = categoryOffer.Name
		}
	}

	applied.FinalPrice = price.Sub(applied.Discount)
	return applied
}

// OfferIndex holds the active offers for a set of products and categories
type OfferIndex struct {
	Products   map[uint]*models.ProductOffer
	Categories map[uint]*models.CategoryOffer
}

// For returns the best offer for product p
func (idx OfferIndex) For(p *models.Product) AppliedOffer {
	return BestOffer(p.Price, idx.Products[p.ID], idx.Categories[p.CategoryID])
}

// LoadActiveOffers reads the offers active at now for the given ids. When
// several offers are active for one target the largest discount is kept.
func LoadActiveOffers(db *gorm.DB, productIDs, categoryIDs []uint, now time.Time) (OfferIndex, error) {
	idx := OfferIndex{
		Products:   map[uint]*models.ProductOffer{},
		Categories: map[uint]*models.CategoryOffer{},
	}

	if len(productIDs) > 0 {
		var offers []models.ProductOffer
		if err := db.Where("product_id IN ? AND is_active = ? AND start_date <= ? AND end_date >= ?", productIDs, true, now, now).
			Find(&offers).Error; err != nil {
			return idx, err
		}
		for i := range offers {
			o := &offers[i]
			if cur, ok := idx.Products[o.ProductID]; !ok || o.DiscountValue.GreaterThan(cur.DiscountValue) {
				idx.Products[o.ProductID] = o
			}
		}
	}

	if len(categoryIDs) > 0 {
		var offers []models.CategoryOffer
		if err := db.Where("category_id IN ? AND is_active = ? AND start_date <= ? AND end_date >= ?", categoryIDs, true, now, now).
			Find(&offers).Error; err != nil {
			return idx, err
		}
		for i := range offers {
			o := &offers[i]
			if cur, ok := idx.Categories[o.CategoryID]; !ok || o.DiscountValue.GreaterThan(cur.DiscountValue) {
				idx.Categories[o.CategoryID] = o
			}
		}
	}

	return idx, nil
}
