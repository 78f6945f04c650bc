package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zekoya/storefront/models"
)

func window(name, discountType, value string) models.OfferWindow {
	now := time.Now()
	return models.OfferWindow{
		Name:          name,
		DiscountType:  discountType,
		DiscountValue: d(value),
		StartDate:     now.Add(-time.Hour),
		EndDate:       now.Add(time.Hour),
		IsActive:      true,
	}
}

func TestBestOffer(t *testing.T) {
	price := d("1000")
	productOffer := &models.ProductOffer{OfferWindow: window("Launch", models.DiscountTypePercentage, "10")}
	categoryOffer := &models.CategoryOffer{OfferWindow: window("Winter", models.DiscountTypeFixed, "150")}

	t.Run("no offers", func(t *testing.T) {
		applied := BestOffer(price, nil, nil)
		assert.Equal(t, OfferSourceNone, applied.Source)
		assert.True(t, price.Equal(applied.FinalPrice))
		assert.True(t, applied.Discount.IsZero())
	})

	t.Run("larger category discount wins", func(t *testing.T) {
		applied := BestOffer(price, productOffer, categoryOffer)
		assert.Equal(t, OfferSourceCategory, applied.Source)
		assert.Equal(t, "Winter", applied.OfferName)
		assert.True(t, d("850").Equal(applied.FinalPrice))
	})

	t.Run("tie goes to the product offer", func(t *testing.T) {
		tie := &models.CategoryOffer{OfferWindow: window("Flat", models.DiscountTypeFixed, "100")}
		applied := BestOffer(price, productOffer, tie)
		assert.Equal(t, OfferSourceProduct, applied.Source)
		assert.True(t, d("900").Equal(applied.FinalPrice))
	})

	t.Run("fixed discount never exceeds the price", func(t *testing.T) {
		huge := &models.ProductOffer{OfferWindow: window("Clearance", models.DiscountTypeFixed, "5000")}
		applied := BestOffer(price, huge, nil)
		assert.True(t, applied.FinalPrice.IsZero())
		assert.True(t, price.Equal(applied.Discount))
	})
}

func TestOfferIndexFor(t *testing.T) {
	idx := OfferIndex{
		Products:   map[uint]*models.ProductOffer{},
		Categories: map[uint]*models.CategoryOffer{7: {CategoryID: 7, OfferWindow: window("Tees", models.DiscountTypePercentage, "20")}},
	}
	product := &models.Product{Price: d("500"), CategoryID: 7}
	product.ID = 3

	applied := idx.For(product)
	assert.Equal(t, OfferSourceCategory, applied.Source)
	assert.True(t, d("400").Equal(applied.FinalPrice))
}
