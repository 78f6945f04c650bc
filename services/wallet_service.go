package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

type WalletServiceImpl struct {
	db *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletServiceImpl {
	return &WalletServiceImpl{db: db}
}

// GetWallet returns the balance and a page of the ledger, newest first
func (s *WalletServiceImpl) GetWallet(ctx context.Context, userID uint, p *utils.Pagination) (*WalletView, error) {
	db := s.db.WithContext(ctx)
	wallet, err := utils.GetOrCreateWallet(db, userID)
	if err != nil {
		return nil, err
	}

	q := db.Model(&models.WalletTransaction{}).Where("wallet_id = ?", wallet.ID)
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count wallet transactions")
	}
	p.SetTotal(total)

	transactions := []models.WalletTransaction{}
	if err := p.Scope(q).Order("created_at DESC, id DESC").Find(&transactions).Error; err != nil {
		return nil, errors.Wrap(err, "list wallet transactions")
	}

	return &WalletView{Balance: wallet.Balance, Transactions: transactions, Pagination: p}, nil
}
