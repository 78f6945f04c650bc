package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxAddresses caps the size of an address book
const MaxAddresses = 10

type AddressServiceImpl struct {
	db *gorm.DB
}

func NewAddressService(db *gorm.DB) *AddressServiceImpl {
	return &AddressServiceImpl{db: db}
}

func (s *AddressServiceImpl) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	addresses := []models.Address{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").Find(&addresses).Error; err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	return addresses, nil
}

func checkAddress(input *utils.AddressInput) error {
	if errs := utils.ValidateAddress(input); len(errs) > 0 {
		return utils.BadRequestError("Invalid address", errs).
			WithType(utils.ErrTypeValidation).
			WithDetails("fields", errs)
	}
	return nil
}

// lockUser serialises address book writes for one user
func lockUser(tx *gorm.DB, userID uint) error {
	var user models.User
	return errors.Wrap(tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, userID).Error, "lock user")
}

func clearDefault(tx *gorm.DB, userID, exceptID uint) error {
	err := tx.Model(&models.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, exceptID, true).
		Update("is_default", false).Error
	return errors.Wrap(err, "clear default address")
}

// AddAddress stores a new address. The first address becomes the default.
func (s *AddressServiceImpl) AddAddress(ctx context.Context, userID uint, input utils.AddressInput) (*models.Address, error) {
	if err := checkAddress(&input); err != nil {
		return nil, err
	}

	address := models.Address{
		UserID:     userID,
		FullName:   input.FullName,
		Phone:      input.Phone,
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		IsDefault:  input.IsDefault,
	}
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "count addresses")
		}
		if count >= MaxAddresses {
			return utils.BadRequestError("You can save at most 10 addresses", nil).WithType(utils.ErrTypeValidation)
		}
		if count == 0 {
			address.IsDefault = true
		}
		if err := tx.Create(&address).Error; err != nil {
			return errors.Wrap(err, "create address")
		}
		if address.IsDefault {
			return clearDefault(tx, userID, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Address %d added for user %d", address.ID, userID)
	return &address, nil
}

func (s *AddressServiceImpl) UpdateAddress(ctx context.Context, userID, addressID uint, input utils.AddressInput) (*models.Address, error) {
	if err := checkAddress(&input); err != nil {
		return nil, err
	}

	var address models.Address
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundError("Address not found", nil)
			}
			return errors.Wrap(err, "load address")
		}

		updates := map[string]interface{}{
			"full_name":   input.FullName,
			"phone":       input.Phone,
			"line1":       input.Line1,
			"line2":       input.Line2,
			"city":        input.City,
			"state":       input.State,
			"postal_code": input.PostalCode,
			"country":     input.Country,
		}
		// unsetting the default is done by choosing another address
		if input.IsDefault {
			updates["is_default"] = true
		}
		if err := tx.Model(&address).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "update address")
		}
		if input.IsDefault {
			if err := clearDefault(tx, userID, address.ID); err != nil {
				return err
			}
		}
		return tx.First(&address, address.ID).Error
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Address %d updated for user %d", addressID, userID)
	return &address, nil
}

// DeleteAddress removes an address. When it was the default, the most
// recent remaining address takes over.
func (s *AddressServiceImpl) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		var address models.Address
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundError("Address not found", nil)
			}
			return errors.Wrap(err, "load address")
		}
		if err := tx.Delete(&address).Error; err != nil {
			return errors.Wrap(err, "delete address")
		}
		if !address.IsDefault {
			return nil
		}

		var next models.Address
		err := tx.Where("user_id = ?", userID).Order("created_at DESC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "pick new default")
		}
		return errors.Wrap(tx.Model(&next).Update("is_default", true).Error, "set new default")
	})
	if err != nil {
		return err
	}
	utils.LogInfo("Address %d deleted for user %d", addressID, userID)
	return nil
}

func (s *AddressServiceImpl) SetDefaultAddress(ctx context.Context, userID, addressID uint) (*models.Address, error) {
	var address models.Address
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundError("Address not found", nil)
			}
			return errors.Wrap(err, "load address")
		}
		if err := clearDefault(tx, userID, address.ID); err != nil {
			return err
		}
		address.IsDefault = true
		return errors.Wrap(tx.Model(&address).Update("is_default", true).Error, "set default address")
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}
