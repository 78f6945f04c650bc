package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// referralOfferLock keys the advisory lock that serialises referral offer writes
const referralOfferLock = 7301

type OfferServiceImpl struct {
	db    *gorm.DB
	cache *ReportCache
}

func NewOfferService(db *gorm.DB, cache *ReportCache) *OfferServiceImpl {
	return &OfferServiceImpl{db: db, cache: cache}
}

func windowFromInput(in OfferWindowInput) (models.OfferWindow, error) {
	w := models.OfferWindow{
		Name:          utils.SanitizeString(in.Name),
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		IsActive:      in.IsActive == nil || *in.IsActive,
	}
	if err := checkDiscount(w.DiscountType, w.DiscountValue); err != nil {
		return w, err
	}
	if !w.EndDate.After(w.StartDate) {
		return w, utils.BadRequestError("End date must be after start date", nil).WithType(utils.ErrTypeValidation)
	}
	return w, nil
}

func overlapError(kind string, existingID uint, start, end time.Time) error {
	return utils.ConflictError(fmt.Sprintf("An active %s offer already covers part of this period", kind), nil).
		WithType(utils.ErrTypeOfferOverlap).
		WithDetails("conflictingOfferId", existingID).
		WithDetails("startDate", start).
		WithDetails("endDate", end)
}

// lockTarget takes a row lock on the product or category an offer is for, so
// concurrent offer writes for the same target run one after another
func lockTarget(tx *gorm.DB, model interface{}, id uint, label string) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundError(label+" not found", nil)
		}
		return errors.Wrapf(err, "lock %s", label)
	}
	return nil
}

// findOverlap returns the id of an active offer in table for the target whose
// window intersects [start, end], or 0
func findOverlap(tx *gorm.DB, model interface{}, column string, targetID, excludeID uint, start, end time.Time) (uint, error) {
	var ids []uint
	err := tx.Model(model).
		Where(column+" = ? AND id <> ? AND is_active = ?", targetID, excludeID, true).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return 0, errors.Wrap(err, "check offer overlap")
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}

// saveRow writes every column, so false flags are stored instead of falling
// back to the column default
func saveRow(tx *gorm.DB, id uint, row interface{}) error {
	if id == 0 {
		return tx.Select("*").Create(row).Error
	}
	return tx.Select("*").Omit("created_at").Save(row).Error
}

func paginate(db *gorm.DB, model interface{}, p *utils.Pagination, dest interface{}) error {
	q := db.Model(model)
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return errors.Wrap(err, "count offers")
	}
	p.SetTotal(total)
	return errors.Wrap(p.Scope(q).Order("start_date DESC, id DESC").Find(dest).Error, "list offers")
}

func (s *OfferServiceImpl) ListProductOffers(ctx context.Context, p *utils.Pagination) ([]models.ProductOffer, error) {
	var offers []models.ProductOffer
	if err := paginate(s.db.WithContext(ctx), &models.ProductOffer{}, p, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (s *OfferServiceImpl) saveProductOffer(ctx context.Context, id uint, input ProductOfferInput) (*models.ProductOffer, error) {
	window, err := windowFromInput(input.OfferWindowInput)
	if err != nil {
		return nil, err
	}

	offer := models.ProductOffer{ID: id, ProductID: input.ProductID, OfferWindow: window}
	err = utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if id != 0 {
			if err := tx.First(&models.ProductOffer{}, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.NotFoundError("Offer not found", nil)
				}
				return errors.Wrap(err, "load offer")
			}
		}
		if err := lockTarget(tx, &models.Product{}, input.ProductID, "Product"); err != nil {
			return err
		}
		if window.IsActive {
			conflict, err := findOverlap(tx, &models.ProductOffer{}, "product_id", input.ProductID, id, window.StartDate, window.EndDate)
			if err != nil {
				return err
			}
			if conflict != 0 {
				return overlapError("product", conflict, window.StartDate, window.EndDate)
			}
		}
		return errors.Wrap(saveRow(tx, id, &offer), "save product offer")
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	utils.LogInfo("Product offer %d saved for product %d", offer.ID, offer.ProductID)
	return &offer, s.db.WithContext(ctx).First(&offer, offer.ID).Error
}

func (s *OfferServiceImpl) CreateProductOffer(ctx context.Context, input ProductOfferInput) (*models.ProductOffer, error) {
	return s.saveProductOffer(ctx, 0, input)
}

func (s *OfferServiceImpl) UpdateProductOffer(ctx context.Context, id uint, input ProductOfferInput) (*models.ProductOffer, error) {
	return s.saveProductOffer(ctx, id, input)
}

func (s *OfferServiceImpl) ToggleProductOffer(ctx context.Context, id uint) (*models.ProductOffer, error) {
	var offer models.ProductOffer
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&offer, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundError("Offer not found", nil)
			}
			return errors.Wrap(err, "load offer")
		}
		if !offer.IsActive {
			if err := lockTarget(tx, &models.Product{}, offer.ProductID, "Product"); err != nil {
				return err
			}
			conflict, err := findOverlap(tx, &models.ProductOffer{}, "product_id", offer.ProductID, offer.ID, offer.StartDate, offer.EndDate)
			if err != nil {
				return err
			}
			if conflict != 0 {
				return overlapError("product", conflict, offer.StartDate, offer.EndDate)
			}
		}
		offer.IsActive = !offer.IsActive
		return errors.Wrap(tx.Model(&offer).Update("is_active", offer.IsActive).Error, "toggle offer")
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return &offer, nil
}

func (s *OfferServiceImpl) DeleteProductOffer(ctx context.Context, id uint) error {
	return s.deleteOffer(ctx, &models.ProductOffer{}, id)
}

func (s *OfferServiceImpl) ListCategoryOffers(ctx context.Context, p *utils.Pagination) ([]models.CategoryOffer, error) {
	var offers []models.CategoryOffer
	if err := paginate(s.db.WithContext(ctx), &models.CategoryOffer{}, p, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (s *OfferServiceImpl) saveCategoryOffer(ctx context.Context, id uint, input CategoryOfferInput) (*models.CategoryOffer, error) {
	window, err := windowFromInput(input.OfferWindowInput)
	if err != nil {
		return nil, err
	}

	offer := models.CategoryOffer{ID: id, CategoryID: input.CategoryID, OfferWindow: window}
	err = utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if id != 0 {
			if err := tx.First(&models.CategoryOffer{}, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.NotFoundError("Offer not found", nil)
				}
				return errors.Wrap(err, "load offer")
			}
		}
		if err := lockTarget(tx, &models.Category{}, input.CategoryID, "Category"); err != nil {
			return err
		}
		if window.IsActive {
			conflict, err := findOverlap(tx, &models.CategoryOffer{}, "category_id", input.CategoryID, id, window.StartDate, window.EndDate)
			if err != nil {
				return err
			}
			if conflict != 0 {
				return overlapError("category", conflict, window.StartDate, window.EndDate)
			}
		}
		return errors.Wrap(saveRow(tx, id, &offer), "save category offer")
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	utils.LogInfo("Category offer %d saved for category %d", offer.ID, offer.CategoryID)
	return &offer, s.db.WithContext(ctx).First(&offer, offer.ID).Error
}

func (s *OfferServiceImpl) CreateCategoryOffer(ctx context.Context, input CategoryOfferInput) (*models.CategoryOffer, error) {
	return s.saveCategoryOffer(ctx, 0, input)
}

func (s *OfferServiceImpl) UpdateCategoryOffer(ctx context.Context, id uint, input CategoryOfferInput) (*models.CategoryOffer, error) {
	return s.saveCategoryOffer(ctx, id, input)
}

func (s *OfferServiceImpl) ToggleCategoryOffer(ctx context.Context, id uint) (*models.CategoryOffer, error) {
	var offer models.CategoryOffer
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&offer, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundError("Offer not found", nil)
			}
			return errors.Wrap(err, "load offer")
		}
		if !offer.IsActive {
			if err := lockTarget(tx, &models.Category{}, offer.CategoryID, "Category"); err != nil {
				return err
			}
			conflict, err := findOverlap(tx, &models.CategoryOffer{}, "category_id", offer.CategoryID, offer.ID, offer.StartDate, offer.EndDate)
			if err != nil {
				return err
			}
			if conflict != 0 {
				return overlapError("category", conflict, offer.StartDate, offer.EndDate)
			}
		}
		offer.IsActive = !offer.IsActive
		return errors.Wrap(tx.Model(&offer).Update("is_active", offer.IsActive).Error, "toggle offer")
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return &offer, nil
}

func (s *OfferServiceImpl) DeleteCategoryOffer(ctx context.Context, id uint) error {
	return s.deleteOffer(ctx, &models.CategoryOffer{}, id)
}

func (s *OfferServiceImpl) ListReferralOffers(ctx context.Context, p *utils.Pagination) ([]models.ReferralOffer, error) {
	var offers []models.ReferralOffer
	if err := paginate(s.db.WithContext(ctx), &models.ReferralOffer{}, p, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func validateReferralInput(input *ReferralOfferInput) error {
	input.Name = utils.SanitizeString(input.Name)
	if input.ReferrerReward.IsNegative() || input.RefereeReward.IsNegative() {
		return utils.BadRequestError("Rewards cannot be negative", nil).WithType(utils.ErrTypeValidation)
	}
	if !input.ReferrerReward.Add(input.RefereeReward).IsPositive() {
		return utils.BadRequestError("At least one reward must be greater than 0", nil).WithType(utils.ErrTypeValidation)
	}
	if !input.EndDate.After(input.StartDate) {
		return utils.BadRequestError("End date must be after start date", nil).WithType(utils.ErrTypeValidation)
	}
	return nil
}

// lockReferralOffers serialises referral offer writes; there is no target row
// to lock, so a transaction-scoped advisory lock stands in for one
func lockReferralOffers(tx *gorm.DB) error {
	return errors.Wrap(tx.Exec("SELECT pg_advisory_xact_lock(?)", referralOfferLock).Error, "lock referral offers")
}

func (s *OfferServiceImpl) saveReferralOffer(ctx context.Context, id uint, input ReferralOfferInput) (*models.ReferralOffer, error) {
	if err := validateReferralInput(&input); err != nil {
		return nil, err
	}
	offer := models.ReferralOffer{
		ID:             id,
		Name:           input.Name,
		ReferrerReward: input.ReferrerReward.Round(2),
		RefereeReward:  input.RefereeReward.Round(2),
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		IsActive:       input.IsActive == nil || *input.IsActive,
	}

	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockReferralOffers(tx); err != nil {
			return err
		}
		if id != 0 {
			if err := tx.First(&models.ReferralOffer{}, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.NotFoundError("Offer not found", nil)
				}
				return errors.Wrap(err, "load offer")
			}
		}
		if offer.IsActive {
			if conflict, err := referralOverlap(tx, id, offer.StartDate, offer.EndDate); err != nil {
				return err
			} else if conflict != 0 {
				return overlapError("referral", conflict, offer.StartDate, offer.EndDate)
			}
		}
		return errors.Wrap(saveRow(tx, id, &offer), "save referral offer")
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Referral offer %d saved", offer.ID)
	return &offer, s.db.WithContext(ctx).First(&offer, offer.ID).Error
}

func referralOverlap(tx *gorm.DB, excludeID uint, start, end time.Time) (uint, error) {
	var ids []uint
	err := tx.Model(&models.ReferralOffer{}).
		Where("id <> ? AND is_active = ? AND start_date <= ? AND end_date >= ?", excludeID, true, end, start).
		Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return 0, errors.Wrap(err, "check referral overlap")
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}

func (s *OfferServiceImpl) CreateReferralOffer(ctx context.Context, input ReferralOfferInput) (*models.ReferralOffer, error) {
	return s.saveReferralOffer(ctx, 0, input)
}

func (s *OfferServiceImpl) UpdateReferralOffer(ctx context.Context, id uint, input ReferralOfferInput) (*models.ReferralOffer, error) {
	return s.saveReferralOffer(ctx, id, input)
}

func (s *OfferServiceImpl) ToggleReferralOffer(ctx context.Context, id uint) (*models.ReferralOffer, error) {
	var offer models.ReferralOffer
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockReferralOffers(tx); err != nil {
			return err
		}
		if err := tx.First(&offer, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundError("Offer not found", nil)
			}
			return errors.Wrap(err, "load offer")
		}
		if !offer.IsActive {
			conflict, err := referralOverlap(tx, offer.ID, offer.StartDate, offer.EndDate)
			if err != nil {
				return err
			}
			if conflict != 0 {
				return overlapError("referral", conflict, offer.StartDate, offer.EndDate)
			}
		}
		offer.IsActive = !offer.IsActive
		return errors.Wrap(tx.Model(&offer).Update("is_active", offer.IsActive).Error, "toggle offer")
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (s *OfferServiceImpl) DeleteReferralOffer(ctx context.Context, id uint) error {
	return s.deleteOffer(ctx, &models.ReferralOffer{}, id)
}

func (s *OfferServiceImpl) deleteOffer(ctx context.Context, model interface{}, id uint) error {
	result := s.db.WithContext(ctx).Delete(model, id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete offer")
	}
	if result.RowsAffected == 0 {
		return utils.NotFoundError("Offer not found", nil)
	}
	s.cache.Invalidate(ctx)
	utils.LogInfo("Offer %d deleted", id)
	return nil
}

// activeReferralOffer returns the referral offer running at now, if any
func activeReferralOffer(db *gorm.DB, now time.Time) (*models.ReferralOffer, error) {
	var offer models.ReferralOffer
	err := db.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Order("start_date DESC").First(&offer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load referral offer")
	}
	return &offer, nil
}
