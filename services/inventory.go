package services

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

// deductStock takes quantity units of one size. The update only matches when
// enough stock remains, so concurrent buyers cannot push it below zero.
func deductStock(tx *gorm.DB, productID uint, size string, quantity int, productName string) error {
	result := tx.Model(&models.ProductSize{}).
		Where("product_id = ? AND size = ? AND stock >= ?", productID, size, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return errors.Wrapf(result.Error, "deduct stock for product %d size %s", productID, size)
	}
	if result.RowsAffected == 0 {
		var current models.ProductSize
		available := 0
		if err := tx.Where("product_id = ? AND size = ?", productID, size).First(&current).Error; err == nil {
			available = current.Stock
		}
		return utils.BadRequestError(fmt.Sprintf("Insufficient stock for %s (size %s)", productName, size), nil).
			WithType(utils.ErrTypeInsufficientStock).
			WithDetails("productId", productID).
			WithDetails("size", size).
			WithDetails("availableStock", available)
	}
	return syncTotalStock(tx, productID)
}

// restock puts quantity units back. A size removed since the sale is
// recreated so the units are not lost.
func restock(tx *gorm.DB, productID uint, size string, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	result := tx.Model(&models.ProductSize{}).
		Where("product_id = ? AND size = ?", productID, size).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return errors.Wrapf(result.Error, "restock product %d size %s", productID, size)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Product{}).Unscoped().Where("id = ?", productID).Count(&count).Error; err != nil {
			return errors.Wrapf(err, "check product %d", productID)
		}
		if count == 0 {
			utils.LogInfo("Skipping restock of deleted product %d", productID)
			return nil
		}
		if err := tx.Create(&models.ProductSize{ProductID: productID, Size: size, Stock: quantity}).Error; err != nil {
			return errors.Wrapf(err, "recreate size %s for product %d", size, productID)
		}
	}
	utils.LogInfo("Restocked %d units of product %d size %s", quantity, productID, size)
	return syncTotalStock(tx, productID)
}

// syncTotalStock recomputes products.total_stock from its sizes
func syncTotalStock(tx *gorm.DB, productID uint) error {
	err := tx.Exec(`
		UPDATE products
		SET total_stock = COALESCE((SELECT SUM(stock) FROM product_sizes WHERE product_id = ?), 0)
		WHERE id = ?
	`, productID, productID).Error
	return errors.Wrapf(err, "sync total stock for product %d", productID)
}
