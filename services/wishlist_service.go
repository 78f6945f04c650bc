package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistServiceImpl struct {
	db *gorm.DB
}

func NewWishlistService(db *gorm.DB) *WishlistServiceImpl {
	return &WishlistServiceImpl{db: db}
}

// ListWishlist returns the saved products that still exist, newest first
func (s *WishlistServiceImpl) ListWishlist(ctx context.Context, userID uint) ([]ProductView, error) {
	db := s.db.WithContext(ctx)
	var entries []models.Wishlist
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, errors.Wrap(err, "list wishlist")
	}

	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	products, err := loadProducts(db, ids)
	if err != nil {
		return nil, err
	}

	ordered := make([]models.Product, 0, len(entries))
	for _, e := range entries {
		if p, ok := products[e.ProductID]; ok {
			ordered = append(ordered, *p)
		}
	}
	return productViews(db, ordered)
}

// AddToWishlist saves a listed product. Saving it twice is not an error.
func (s *WishlistServiceImpl) AddToWishlist(ctx context.Context, userID, productID uint) error {
	db := s.db.WithContext(ctx)
	var product models.Product
	if err := db.Preload("Category").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundError("Product not found", nil)
		}
		return errors.Wrap(err, "load product")
	}
	if !product.IsListed || product.Category == nil || !product.Category.IsListed {
		return utils.BadRequestError("This product is not available", nil).WithType(utils.ErrTypeItemUnavailable)
	}

	entry := models.Wishlist{UserID: userID, ProductID: productID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Omit("Product").Create(&entry).Error; err != nil {
		return errors.Wrap(err, "add to wishlist")
	}
	utils.LogInfo("Product %d saved to wishlist of user %d", productID, userID)
	return nil
}

func (s *WishlistServiceImpl) RemoveFromWishlist(ctx context.Context, userID, productID uint) error {
	result := s.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.Wishlist{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "remove from wishlist")
	}
	if result.RowsAffected == 0 {
		return utils.NotFoundError("Product is not in your wishlist", nil)
	}
	return nil
}
