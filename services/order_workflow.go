package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actors written to the status history
const (
	actorUser   = "user"
	actorSystem = "system"
)

func adminActor(adminID uint) string {
	return fmt.Sprintf("admin:%d", adminID)
}

// orderQuery narrows a query to one order, by numeric id or by its public
// code. userID 0 means any user.
func orderQuery(db *gorm.DB, userID uint, ref string) *gorm.DB {
	q := db.Model(&models.Order{})
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		q = q.Where("id = ?", uint(id))
	} else {
		q = q.Where("order_id = ?", ref)
	}
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	return q
}

// loadOrder reads an order with its items and history
func loadOrder(db *gorm.DB, userID uint, ref string) (*models.Order, error) {
	var order models.Order
	err := orderQuery(db, userID, ref).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("Order not found", nil)
		}
		return nil, errors.Wrap(err, "load order")
	}
	return &order, nil
}

// lockOrder reads an order and its items FOR UPDATE
func lockOrder(tx *gorm.DB, userID uint, ref string) (*models.Order, error) {
	var order models.Order
	err := orderQuery(tx, userID, ref).Clauses(clause.Locking{Strength: "UPDATE"}).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("Order not found", nil)
		}
		return nil, errors.Wrap(err, "lock order")
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", order.ID).Order("id ASC").
		Find(&order.OrderItems).Error; err != nil {
		return nil, errors.Wrap(err, "lock order items")
	}
	return &order, nil
}

func findItem(order *models.Order, itemID uint) (*models.OrderItem, error) {
	for i := range order.OrderItems {
		if order.OrderItems[i].ID == itemID {
			return &order.OrderItems[i], nil
		}
	}
	return nil, utils.NotFoundError("Order item not found", nil)
}

func appendHistory(tx *gorm.DB, orderID uint, status, note, actor string) error {
	entry := models.OrderStatusHistory{OrderID: orderID, Status: status, Note: note, Actor: actor}
	return errors.Wrap(tx.Create(&entry).Error, "append status history")
}

// cancelWholeOrder restocks every active item, refunds what a prepaid order
// still holds and marks the order Cancelled. The caller has locked the order.
func cancelWholeOrder(tx *gorm.DB, order *models.Order, reason, actor string) error {
	now := time.Now()

	for i := range order.OrderItems {
		item := &order.OrderItems[i]
		if item.Status != models.ItemStatusActive {
			continue
		}
		if err := restock(tx, item.ProductID, item.Size, item.Quantity); err != nil {
			return err
		}
		item.Status = models.ItemStatusCancelled
		item.CancelReason = reason
		item.CancelledWithOrder = true
		if err := tx.Model(item).Updates(map[string]interface{}{
			"status":               item.Status,
			"cancel_reason":        reason,
			"cancelled_with_order": true,
		}).Error; err != nil {
			return errors.Wrapf(err, "cancel item %d", item.ID)
		}
	}

	updates := map[string]interface{}{
		"order_status":  models.OrderStatusCancelled,
		"cancelled_at":  now,
		"cancel_reason": reason,
	}

	// TotalPrice already excludes earlier item-level refunds
	refund := order.TotalPrice
	if order.IsPrepaid() && refund.IsPositive() {
		orderID := order.ID
		_, err := utils.CreditWallet(tx, utils.WalletEntry{
			UserID:      order.UserID,
			Amount:      refund,
			Description: fmt.Sprintf("Refund for cancelled order %s", order.OrderID),
			OrderID:     &orderID,
			Reference:   fmt.Sprintf("CANCEL-%d", order.ID),
		})
		if err != nil && !errors.Is(err, utils.ErrDuplicateWalletReference) {
			return err
		}
		order.RefundedAmount = order.RefundedAmount.Add(refund)
		order.PaymentStatus = models.PaymentStatusRefunded
		updates["refunded_amount"] = order.RefundedAmount
		updates["payment_status"] = order.PaymentStatus
		utils.LogInfo("Refunded %s to wallet for cancelled order %s", refund.StringFixed(2), order.OrderID)
	}

	if err := tx.Model(order).Updates(updates).Error; err != nil {
		return errors.Wrap(err, "cancel order")
	}
	order.OrderStatus = models.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelReason = reason

	note := "Order cancelled"
	if reason != "" {
		note = "Order cancelled: " + reason
	}
	return appendHistory(tx, order.ID, models.OrderStatusCancelled, note, actor)
}

// repriceOrder recomputes the price breakdown from the active items. The
// coupon discount is kept but capped at the new items price.
func repriceOrder(order *models.Order) utils.OrderTotals {
	itemsPrice := decimal.Zero
	offerDiscount := decimal.Zero
	for _, item := range order.OrderItems {
		if item.Status != models.ItemStatusActive {
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		itemsPrice = itemsPrice.Add(item.LineTotal())
		offerDiscount = offerDiscount.Add(item.OfferDiscount.Mul(qty))
	}
	totals := utils.CalculateTotals(itemsPrice, order.CouponDiscount)
	order.ItemsPrice = totals.ItemsPrice
	order.TaxPrice = totals.TaxPrice
	order.ShippingPrice = totals.ShippingPrice
	order.CouponDiscount = totals.CouponDiscount
	order.DiscountPrice = offerDiscount
	order.TotalPrice = totals.TotalPrice
	return totals
}

func savePricing(tx *gorm.DB, order *models.Order) error {
	err := tx.Model(order).Updates(map[string]interface{}{
		"items_price":     order.ItemsPrice,
		"tax_price":       order.TaxPrice,
		"shipping_price":  order.ShippingPrice,
		"discount_price":  order.DiscountPrice,
		"coupon_discount": order.CouponDiscount,
		"total_price":     order.TotalPrice,
		"refunded_amount": order.RefundedAmount,
	}).Error
	return errors.Wrap(err, "save order pricing")
}

// reopenOrder moves a cancelled order back into the flow. Items cancelled
// with the order are reactivated and their stock is taken again with
// guarded updates, so this fails when the stock has been sold meanwhile.
func reopenOrder(tx *gorm.DB, order *models.Order) error {
	if order.RefundedAmount.IsPositive() || order.PaymentStatus == models.PaymentStatusRefunded {
		return utils.BadRequestError("A refunded order cannot be reopened", nil).
			WithType(utils.ErrTypeInvalidTransition)
	}

	restored := 0
	for i := range order.OrderItems {
		item := &order.OrderItems[i]
		if item.Status != models.ItemStatusCancelled || !item.CancelledWithOrder {
			continue
		}
		if err := deductStock(tx, item.ProductID, item.Size, item.Quantity, item.Name); err != nil {
			return err
		}
		item.Status = models.ItemStatusActive
		item.CancelledWithOrder = false
		item.CancelReason = ""
		if err := tx.Model(item).Updates(map[string]interface{}{
			"status":               item.Status,
			"cancel_reason":        "",
			"cancelled_with_order": false,
		}).Error; err != nil {
			return errors.Wrapf(err, "restore item %d", item.ID)
		}
		restored++
	}
	if restored == 0 {
		return utils.BadRequestError("The order has no items to restore", nil).
			WithType(utils.ErrTypeInvalidTransition)
	}

	order.CancelledAt = nil
	order.CancelReason = ""
	return errors.Wrap(tx.Model(order).Updates(map[string]interface{}{
		"cancelled_at":  nil,
		"cancel_reason": "",
	}).Error, "reopen order")
}

// CheckStatusTransition applies the admin status rules: the same status is
// rejected, a delivered order cannot be cancelled, and moves along
// Pending -> Processing -> Shipped -> Delivered only go forward (skips are
// allowed). Leaving Cancelled is checked separately by reopenOrder.
func CheckStatusTransition(current, next string) error {
	invalid := func(msg string) error {
		return utils.BadRequestError(msg, nil).
			WithType(utils.ErrTypeInvalidTransition).
			WithDetails("currentStatus", current).
			WithDetails("requestedStatus", next)
	}

	if !utils.IsValidOrderStatus(next) {
		return invalid(fmt.Sprintf("Unknown order status %q", next))
	}
	if current == next {
		return invalid(fmt.Sprintf("Order is already %s", current))
	}
	if current == models.OrderStatusCancelled {
		return nil
	}
	if next == models.OrderStatusCancelled {
		if current == models.OrderStatusDelivered {
			return invalid("Delivered orders cannot be cancelled")
		}
		return nil
	}
	if flowIndex(next) < flowIndex(current) {
		return invalid(fmt.Sprintf("Order cannot move back from %s to %s", current, next))
	}
	return nil
}

func flowIndex(status string) int {
	for i, s := range models.OrderStatusFlow {
		if s == status {
			return i
		}
	}
	return -1
}
