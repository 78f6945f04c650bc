package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zekoya/storefront/models"
	"gorm.io/gorm"
)

func cartProduct(stock int) *models.Product {
	return &models.Product{
		Name:     "Oversized Tee",
		Brand:    "Zekoya",
		Price:    d("400"),
		IsListed: true,
		Category: &models.Category{Name: "Tees", IsListed: true},
		Sizes:    []models.ProductSize{{Size: models.SizeM, Stock: stock}},
		Images:   []models.ProductImage{{URL: "b.jpg", Position: 2}, {URL: "a.jpg", Position: 1}},
	}
}

func TestEvaluateCartItem(t *testing.T) {
	item := models.CartItem{ProductID: 1, Size: models.SizeM, Quantity: 3}
	offer := BestOffer(d("400"), nil, nil)

	t.Run("available line", func(t *testing.T) {
		view := EvaluateCartItem(item, cartProduct(10), offer)
		assert.True(t, view.IsAvailable)
		assert.False(t, view.StockReduced)
		assert.Equal(t, "a.jpg", view.Image)
		assert.True(t, d("1200").Equal(view.LineTotal))
	})

	t.Run("quantity clamped to stock", func(t *testing.T) {
		view := EvaluateCartItem(item, cartProduct(2), offer)
		assert.True(t, view.IsAvailable)
		assert.True(t, view.StockReduced)
		assert.Equal(t, 2, view.Quantity)
		assert.Equal(t, 3, view.RequestedQuantity)
		assert.True(t, d("800").Equal(view.LineTotal))
	})

	t.Run("missing product", func(t *testing.T) {
		view := EvaluateCartItem(item, nil, offer)
		assert.False(t, view.IsAvailable)
		assert.Equal(t, ReasonProductMissing, view.UnavailableReason)
	})

	t.Run("unlisted product wins over empty stock", func(t *testing.T) {
		p := cartProduct(0)
		p.IsListed = false
		view := EvaluateCartItem(item, p, offer)
		assert.Equal(t, ReasonProductUnlisted, view.UnavailableReason)
	})

	t.Run("deleted category", func(t *testing.T) {
		p := cartProduct(10)
		p.Category.DeletedAt = gorm.DeletedAt{Valid: true}
		view := EvaluateCartItem(item, p, offer)
		assert.Equal(t, ReasonCategoryUnavailable, view.UnavailableReason)
	})

	t.Run("size no longer offered", func(t *testing.T) {
		view := EvaluateCartItem(models.CartItem{ProductID: 1, Size: models.SizeXL, Quantity: 1}, cartProduct(10), offer)
		assert.Equal(t, ReasonSizeUnavailable, view.UnavailableReason)
	})

	t.Run("out of stock", func(t *testing.T) {
		view := EvaluateCartItem(item, cartProduct(0), offer)
		assert.Equal(t, ReasonOutOfStock, view.UnavailableReason)
		assert.True(t, view.LineTotal.IsZero())
	})
}

func TestBuildCartView(t *testing.T) {
	items := []CartItemView{
		{IsAvailable: true, Quantity: 2, OriginalPrice: d("500"), OfferDiscount: d("50"), LineTotal: d("900")},
		{IsAvailable: true, Quantity: 1, OriginalPrice: d("300"), OfferDiscount: d("0"), LineTotal: d("300")},
		{IsAvailable: false, Quantity: 4, UnavailableReason: ReasonOutOfStock},
	}

	view := BuildCartView(9, items)
	assert.Equal(t, uint(9), view.ID)
	assert.True(t, view.HasUnavailableItems)
	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, d("1300").Equal(view.Subtotal))
	assert.True(t, d("100").Equal(view.OfferDiscount))
	assert.True(t, d("1200").Equal(view.Total))

	empty := BuildCartView(1, nil)
	assert.NotNil(t, empty.Items)
	assert.False(t, empty.HasUnavailableItems)
}
