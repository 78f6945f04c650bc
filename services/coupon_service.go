package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

type CouponServiceImpl struct {
	db *gorm.DB
}

func NewCouponService(db *gorm.DB) *CouponServiceImpl {
	return &CouponServiceImpl{db: db}
}

// AvailableCoupons lists coupons that could apply now. When amount is
// positive, coupons whose minimum purchase it does not reach are left out.
func (s *CouponServiceImpl) AvailableCoupons(ctx context.Context, amount decimal.Decimal) ([]models.Coupon, error) {
	now := time.Now()
	q := s.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Where("usage_limit = 0 OR usage_count < usage_limit")
	if amount.IsPositive() {
		q = q.Where("min_purchase <= ?", amount)
	}
	var coupons []models.Coupon
	if err := q.Order("end_date ASC").Find(&coupons).Error; err != nil {
		return nil, errors.Wrap(err, "list available coupons")
	}
	return coupons, nil
}

// ValidateCoupon previews the discount without taking a use
func (s *CouponServiceImpl) ValidateCoupon(ctx context.Context, code string, amount decimal.Decimal) (*CouponPreview, error) {
	code = utils.NormalizeCode(code)
	var coupon models.Coupon
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.BadRequestError("Invalid coupon code", nil).WithType(utils.ErrTypeInvalidCoupon)
		}
		return nil, errors.Wrap(err, "load coupon")
	}
	if err := coupon.Validate(time.Now(), amount); err != nil {
		return nil, couponError(err, &coupon)
	}
	discount := coupon.DiscountFor(amount)
	return &CouponPreview{
		Code:          coupon.Code,
		Amount:        amount,
		Discount:      discount,
		PayableAmount: amount.Sub(discount),
	}, nil
}

func (s *CouponServiceImpl) ListCoupons(ctx context.Context, p *utils.Pagination) ([]models.Coupon, error) {
	q := s.db.WithContext(ctx).Model(&models.Coupon{})
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count coupons")
	}
	p.SetTotal(total)

	var coupons []models.Coupon
	if err := p.Scope(q).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return coupons, nil
}

func checkDiscount(discountType string, value decimal.Decimal) *utils.AppError {
	if !value.IsPositive() {
		return utils.BadRequestError("Discount value must be greater than 0", nil).WithType(utils.ErrTypeValidation)
	}
	if discountType == models.DiscountTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return utils.BadRequestError("Percentage discount cannot exceed 100", nil).WithType(utils.ErrTypeValidation)
	}
	return nil
}

func validateCouponInput(input *CouponInput) error {
	input.Code = utils.NormalizeCode(input.Code)
	input.Description = utils.SanitizeString(input.Description)
	if err := checkDiscount(input.DiscountType, input.DiscountValue); err != nil {
		return err
	}
	if !input.EndDate.After(input.StartDate) {
		return utils.BadRequestError("End date must be after start date", nil).WithType(utils.ErrTypeValidation)
	}
	if input.MaxDiscount.IsNegative() || input.MinPurchase.IsNegative() {
		return utils.BadRequestError("Amounts cannot be negative", nil).WithType(utils.ErrTypeValidation)
	}
	if input.UsageLimit < 0 {
		return utils.BadRequestError("Usage limit cannot be negative", nil).WithType(utils.ErrTypeValidation)
	}
	return nil
}

func (s *CouponServiceImpl) CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(&input); err != nil {
		return nil, err
	}
	coupon := models.Coupon{
		Code:          input.Code,
		Description:   input.Description,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		MaxDiscount:   input.MaxDiscount,
		MinPurchase:   input.MinPurchase,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		UsageLimit:    input.UsageLimit,
		IsActive:      input.IsActive == nil || *input.IsActive,
	}
	if err := s.db.WithContext(ctx).Create(&coupon).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, utils.ConflictError(fmt.Sprintf("Coupon %s already exists", coupon.Code), err).
				WithType(utils.ErrTypeAlreadyExists)
		}
		return nil, errors.Wrap(err, "create coupon")
	}
	// IsActive defaults to true in the table, so a false has to be written explicitly
	if !coupon.IsActive {
		if err := s.db.WithContext(ctx).Model(&coupon).Update("is_active", false).Error; err != nil {
			return nil, errors.Wrap(err, "deactivate coupon")
		}
	}
	utils.LogInfo("Coupon %s created", coupon.Code)
	return &coupon, nil
}

func (s *CouponServiceImpl) getCoupon(db *gorm.DB, id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("Coupon not found", nil)
		}
		return nil, errors.Wrap(err, "get coupon")
	}
	return &coupon, nil
}

func (s *CouponServiceImpl) UpdateCoupon(ctx context.Context, id uint, input CouponInput) (*models.Coupon, error) {
	db := s.db.WithContext(ctx)
	coupon, err := s.getCoupon(db, id)
	if err != nil {
		return nil, err
	}
	if err := validateCouponInput(&input); err != nil {
		return nil, err
	}
	if input.UsageLimit > 0 && input.UsageLimit < coupon.UsageCount {
		return nil, utils.BadRequestError(fmt.Sprintf("Usage limit cannot be below the %d uses already made", coupon.UsageCount), nil).
			WithType(utils.ErrTypeValidation)
	}

	updates := map[string]interface{}{
		"code":           input.Code,
		"description":    input.Description,
		"discount_type":  input.DiscountType,
		"discount_value": input.DiscountValue,
		"max_discount":   input.MaxDiscount,
		"min_purchase":   input.MinPurchase,
		"start_date":     input.StartDate,
		"end_date":       input.EndDate,
		"usage_limit":    input.UsageLimit,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := db.Model(coupon).Updates(updates).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, utils.ConflictError(fmt.Sprintf("Coupon %s already exists", input.Code), err).
				WithType(utils.ErrTypeAlreadyExists)
		}
		return nil, errors.Wrap(err, "update coupon")
	}
	utils.LogInfo("Coupon %d updated", id)
	return s.getCoupon(db, id)
}

func (s *CouponServiceImpl) ToggleCoupon(ctx context.Context, id uint) (*models.Coupon, error) {
	db := s.db.WithContext(ctx)
	result := db.Model(&models.Coupon{}).Where("id = ?", id).Update("is_active", gorm.Expr("NOT is_active"))
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "toggle coupon")
	}
	if result.RowsAffected == 0 {
		return nil, utils.NotFoundError("Coupon not found", nil)
	}
	return s.getCoupon(db, id)
}

func (s *CouponServiceImpl) DeleteCoupon(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Coupon{}, id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete coupon")
	}
	if result.RowsAffected == 0 {
		return utils.NotFoundError("Coupon not found", nil)
	}
	utils.LogInfo("Coupon %d deleted", id)
	return nil
}
