package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

type ReviewServiceImpl struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewServiceImpl {
	return &ReviewServiceImpl{db: db}
}

// AddReview records a rating from a buyer who has received the product
func (s *ReviewServiceImpl) AddReview(ctx context.Context, userID, productID uint, input ReviewInput) (*models.Review, error) {
	if err := utils.ValidateRating(input.Rating); err != nil {
		return nil, utils.BadRequestError(err.Error(), nil).WithType(utils.ErrTypeValidation)
	}
	db := s.db.WithContext(ctx)

	if err := db.Select("id").First(&models.Product{}, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("Product not found", nil)
		}
		return nil, errors.Wrap(err, "load product")
	}

	var delivered int64
	if err := db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.order_status = ? AND order_items.product_id = ?",
			userID, models.OrderStatusDelivered, productID).
		Count(&delivered).Error; err != nil {
		return nil, errors.Wrap(err, "check purchase")
	}
	if delivered == 0 {
		return nil, utils.ForbiddenError("Only customers who received this product can review it", nil)
	}

	review := models.Review{
		UserID:      userID,
		ProductID:   productID,
		Rating:      input.Rating,
		Title:       utils.SanitizeString(input.Title),
		Description: utils.SanitizeString(input.Description),
	}
	if err := db.Omit("User").Create(&review).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, utils.ConflictError("You have already reviewed this product", err).WithType(utils.ErrTypeAlreadyExists)
		}
		return nil, errors.Wrap(err, "create review")
	}
	utils.LogInfo("User %d reviewed product %d (%d stars)", userID, productID, input.Rating)
	return &review, nil
}

func (s *ReviewServiceImpl) ListReviews(ctx context.Context, productID uint, p *utils.Pagination) (*ReviewList, error) {
	db := s.db.WithContext(ctx)
	summary, err := ratingSummaries(db, []uint{productID})
	if err != nil {
		return nil, err
	}
	p.SetTotal(summary[productID].Count)

	reviews := []models.Review{}
	if err := p.Scope(db.Where("product_id = ?", productID)).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	return &ReviewList{
		Reviews:       reviews,
		AverageRating: roundRating(summary[productID].Average),
		ReviewCount:   summary[productID].Count,
		Pagination:    p,
	}, nil
}
