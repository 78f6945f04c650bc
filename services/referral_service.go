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

type ReferralServiceImpl struct {
	db *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralServiceImpl {
	return &ReferralServiceImpl{db: db}
}

// GetReferral returns the user's referral code, generating it on first use
func (s *ReferralServiceImpl) GetReferral(ctx context.Context, userID uint) (*ReferralView, error) {
	db := s.db.WithContext(ctx)
	user, err := ensureReferralCode(db, userID)
	if err != nil {
		return nil, err
	}
	offer, err := activeReferralOffer(db, time.Now())
	if err != nil {
		return nil, err
	}
	return &ReferralView{
		ReferralCode:  *user.ReferralCode,
		ReferralCount: user.ReferralCount,
		ReferredBy:    user.ReferredByID,
		ActiveOffer:   offer,
	}, nil
}

func ensureReferralCode(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return &user, nil
	}

	for attempt := 0; attempt < 5; attempt++ {
		code := utils.GenerateReferralCode(user.Name)
		result := db.Model(&models.User{}).
			Where("id = ? AND referral_code IS NULL", userID).
			Update("referral_code", code)
		if result.Error != nil {
			if utils.IsUniqueViolation(result.Error) {
				continue
			}
			return nil, errors.Wrap(result.Error, "save referral code")
		}
		// zero rows means a concurrent request set it first
		if err := db.First(&user, userID).Error; err != nil {
			return nil, errors.Wrap(err, "reload user")
		}
		utils.LogInfo("Referral code issued for user %d", userID)
		return &user, nil
	}
	return nil, utils.InternalError("Could not generate a referral code", nil)
}

// ApplyReferralCode links the user to the referrer once and pays both sides
// the rewards of the running referral offer
func (s *ReferralServiceImpl) ApplyReferralCode(ctx context.Context, userID uint, code string) (*ReferralView, error) {
	code = utils.NormalizeCode(code)
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var referee models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&referee, userID).Error; err != nil {
			return errors.Wrap(err, "lock user")
		}
		if referee.ReferredByID != nil {
			return utils.BadRequestError("A referral code has already been applied", nil).WithType(utils.ErrTypeReferral)
		}

		var referrer models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("referral_code = ?", code).First(&referrer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.BadRequestError("Invalid referral code", nil).WithType(utils.ErrTypeReferral)
			}
			return errors.Wrap(err, "load referrer")
		}
		if referrer.ID == referee.ID {
			return utils.BadRequestError("You cannot use your own referral code", nil).WithType(utils.ErrTypeReferral)
		}

		offer, err := activeReferralOffer(tx, time.Now())
		if err != nil {
			return err
		}
		if offer == nil {
			return utils.BadRequestError("There is no referral offer running right now", nil).WithType(utils.ErrTypeReferral)
		}

		if err := tx.Model(&referee).Update("referred_by_id", referrer.ID).Error; err != nil {
			return errors.Wrap(err, "link referral")
		}
		if err := tx.Model(&referrer).Update("referral_count", gorm.Expr("referral_count + 1")).Error; err != nil {
			return errors.Wrap(err, "count referral")
		}

		if offer.ReferrerReward.IsPositive() {
			if _, err := utils.CreditWallet(tx, utils.WalletEntry{
				UserID:      referrer.ID,
				Amount:      offer.ReferrerReward,
				Description: fmt.Sprintf("Referral reward (%s)", offer.Name),
				Reference:   fmt.Sprintf("REFERRAL-%d-REFERRER", referee.ID),
			}); err != nil {
				return err
			}
		}
		if offer.RefereeReward.IsPositive() {
			if _, err := utils.CreditWallet(tx, utils.WalletEntry{
				UserID:      referee.ID,
				Amount:      offer.RefereeReward,
				Description: fmt.Sprintf("Welcome reward (%s)", offer.Name),
				Reference:   fmt.Sprintf("REFERRAL-%d-REFEREE", referee.ID),
			}); err != nil {
				return err
			}
		}
		utils.LogInfo("User %d applied referral code of user %d", referee.ID, referrer.ID)
		return nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrDuplicateWalletReference) {
			return nil, utils.ConflictError("Referral reward already paid", err).WithType(utils.ErrTypeReferral)
		}
		return nil, err
	}
	return s.GetReferral(ctx, userID)
}
