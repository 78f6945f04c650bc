package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
)

func purchasableProduct() *models.Product {
	return &models.Product{
		Name:     "Linen Shirt",
		IsListed: true,
		Category: &models.Category{Name: "Shirts", IsListed: true},
		Sizes: []models.ProductSize{
			{Size: models.SizeM, Stock: 3},
			{Size: models.SizeL, Stock: 0},
		},
	}
}

func TestCheckPurchasable(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *models.Product)
		size     string
		quantity int
		errType  string
		reason   string
	}{
		{name: "in stock", size: models.SizeM, quantity: 3},
		{name: "unlisted product", mutate: func(p *models.Product) { p.IsListed = false },
			size: models.SizeM, quantity: 1, errType: utils.ErrTypeItemUnavailable, reason: utils.ReasonProductUnlisted},
		{name: "unlisted category", mutate: func(p *models.Product) { p.Category.IsListed = false },
			size: models.SizeM, quantity: 1, errType: utils.ErrTypeItemUnavailable, reason: utils.ReasonCategoryUnavailable},
		{name: "missing category", mutate: func(p *models.Product) { p.Category = nil },
			size: models.SizeM, quantity: 1, errType: utils.ErrTypeItemUnavailable, reason: utils.ReasonCategoryUnavailable},
		{name: "size not stocked", size: models.SizeXL, quantity: 1,
			errType: utils.ErrTypeItemUnavailable, reason: utils.ReasonSizeUnavailable},
		{name: "out of stock", size: models.SizeL, quantity: 1,
			errType: utils.ErrTypeItemUnavailable, reason: utils.ReasonOutOfStock},
		{name: "more than stock", size: models.SizeM, quantity: 4, errType: utils.ErrTypeInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := purchasableProduct()
			if tt.mutate != nil {
				tt.mutate(p)
			}
			err := checkPurchasable(p, tt.size, tt.quantity)
			if tt.errType == "" {
				assert.NoError(t, err)
				return
			}
			appErr := utils.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, 400, appErr.Code)
			assert.Equal(t, tt.errType, appErr.ErrorType)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, appErr.Details["reason"])
			}
		})
	}
}
