package utils

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateWalletReference is returned when a ledger entry with the same
// reference was already written
var ErrDuplicateWalletReference = errors.New("wallet transaction already recorded")

// WalletEntry describes one credit or debit
type WalletEntry struct {
	UserID      uint
	Amount      decimal.Decimal
	Description string
	OrderID     *uint
	OrderItemID *uint
	Reference   string
}

// GetOrCreateWallet returns the user's wallet, creating it on first use
func GetOrCreateWallet(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	wallet := models.Wallet{UserID: userID, Balance: decimal.Zero}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&wallet).Error; err != nil {
		return nil, errors.Wrap(err, "create wallet")
	}
	if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, errors.Wrap(err, "load wallet")
	}
	return &wallet, nil
}

// lockWallet loads the wallet row FOR UPDATE
func lockWallet(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	if _, err := GetOrCreateWallet(tx, userID); err != nil {
		return nil, err
	}
	var wallet models.Wallet
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, errors.Wrap(err, "lock wallet")
	}
	return &wallet, nil
}

func referenceExists(tx *gorm.DB, reference string) (bool, error) {
	var count int64
	if err := tx.Model(&models.WalletTransaction{}).Where("reference = ?", reference).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreditWallet adds entry.Amount to the wallet and records it. Must run
// inside a transaction.
func CreditWallet(tx *gorm.DB, entry WalletEntry) (*models.WalletTransaction, error) {
	if !entry.Amount.IsPositive() {
		return nil, BadRequestError("Credit amount must be positive", nil)
	}
	return applyWalletEntry(tx, entry, models.TransactionTypeCredit)
}

// DebitWallet removes entry.Amount from the wallet. The balance never goes
// below zero; a short balance returns an insufficientWalletBalance error.
func DebitWallet(tx *gorm.DB, entry WalletEntry) (*models.WalletTransaction, error) {
	if !entry.Amount.IsPositive() {
		return nil, BadRequestError("Debit amount must be positive", nil)
	}
	return applyWalletEntry(tx, entry, models.TransactionTypeDebit)
}

func applyWalletEntry(tx *gorm.DB, entry WalletEntry, txType string) (*models.WalletTransaction, error) {
	wallet, err := lockWallet(tx, entry.UserID)
	if err != nil {
		return nil, err
	}

	exists, err := referenceExists(tx, entry.Reference)
	if err != nil {
		return nil, errors.Wrap(err, "check wallet reference")
	}
	if exists {
		LogInfo("Wallet reference %s already recorded for user %d", entry.Reference, entry.UserID)
		return nil, ErrDuplicateWalletReference
	}

	var result *gorm.DB
	if txType == models.TransactionTypeDebit {
		result = tx.Model(&models.Wallet{}).
			Where("id = ? AND balance >= ?", wallet.ID, entry.Amount).
			Update("balance", gorm.Expr("balance - ?", entry.Amount))
	} else {
		result = tx.Model(&models.Wallet{}).
			Where("id = ?", wallet.ID).
			Update("balance", gorm.Expr("balance + ?", entry.Amount))
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "update wallet balance")
	}
	if result.RowsAffected == 0 {
		return nil, BadRequestError("Insufficient wallet balance", nil).
			WithType(ErrTypeInsufficientBalance).
			WithDetails("walletBalance", wallet.Balance.StringFixed(2)).
			WithDetails("requiredAmount", entry.Amount.StringFixed(2))
	}

	if err := tx.Select("balance").First(wallet, wallet.ID).Error; err != nil {
		return nil, errors.Wrap(err, "reload wallet")
	}

	record := models.WalletTransaction{
		WalletID:     wallet.ID,
		Type:         txType,
		Amount:       entry.Amount,
		BalanceAfter: wallet.Balance,
		Description:  entry.Description,
		OrderID:      entry.OrderID,
		OrderItemID:  entry.OrderItemID,
		Reference:    entry.Reference,
	}
	if err := tx.Create(&record).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateWalletReference
		}
		return nil, errors.Wrap(err, "record wallet transaction")
	}

	LogInfo("Wallet %s of %s for user %d (%s), balance now %s",
		txType, entry.Amount.StringFixed(2), entry.UserID, entry.Reference, wallet.Balance.StringFixed(2))
	return &record, nil
}
