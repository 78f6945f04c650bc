package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

type AdminOrderServiceImpl struct {
	db    *gorm.DB
	cache *ReportCache
}

func NewAdminOrderService(db *gorm.DB, cache *ReportCache) *AdminOrderServiceImpl {
	return &AdminOrderServiceImpl{db: db, cache: cache}
}

func (s *AdminOrderServiceImpl) ListOrders(ctx context.Context, filter OrderFilter, p *utils.Pagination) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{}).Joins("JOIN users ON users.id = orders.user_id")
	if filter.Status != "" {
		q = q.Where("orders.order_status = ?", filter.Status)
	}
	if filter.PaymentMethod != "" {
		q = q.Where("orders.payment_method = ?", filter.PaymentMethod)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(orders.order_id) LIKE ? OR LOWER(users.email) LIKE ?", like, like)
	}
	if filter.From != nil {
		q = q.Where("orders.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("orders.created_at < ?", *filter.To)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count orders")
	}
	p.SetTotal(total)

	var orders []models.Order
	if err := p.Scope(q).Select("orders.*").Preload("User").Preload("OrderItems").
		Order("orders.created_at DESC").Find(&orders).Error; err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

func (s *AdminOrderServiceImpl) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := loadOrder(s.db.WithContext(ctx), 0, fmt.Sprint(id))
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, order.UserID).Error; err == nil {
		order.User = &user
	}
	return order, nil
}

// UpdateOrderStatus moves an order through its lifecycle. Cancelling runs
// the same restock and refund as a buyer cancellation; leaving Cancelled
// takes the stock again.
func (s *AdminOrderServiceImpl) UpdateOrderStatus(ctx context.Context, adminID, id uint, req UpdateOrderStatusRequest) (*models.Order, error) {
	note := utils.SanitizeString(req.Note)
	actor := adminActor(adminID)

	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		order, err := lockOrder(tx, 0, fmt.Sprint(id))
		if err != nil {
			return err
		}
		current := order.OrderStatus
		if err := CheckStatusTransition(current, req.Status); err != nil {
			return err
		}

		if req.Status == models.OrderStatusCancelled {
			return cancelWholeOrder(tx, order, note, actor)
		}
		if order.PaymentMethod == models.PaymentMethodRazorpay && !order.IsPaid {
			return utils.BadRequestError("Razorpay orders must be paid before they move on", nil).
				WithType(utils.ErrTypeInvalidTransition).
				WithDetails("paymentStatus", order.PaymentStatus)
		}
		if current == models.OrderStatusCancelled {
			if err := reopenOrder(tx, order); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"order_status": req.Status}
		if req.Status == models.OrderStatusDelivered {
			now := time.Now()
			updates["delivered_at"] = now
			if order.PaymentMethod == models.PaymentMethodCOD && !order.IsPaid {
				updates["is_paid"] = true
				updates["paid_at"] = now
				updates["payment_status"] = models.PaymentStatusPaid
			}
		}
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "update order status")
		}

		if note == "" {
			note = fmt.Sprintf("Status changed from %s to %s", current, req.Status)
		}
		return appendHistory(tx, order.ID, req.Status, note, actor)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	utils.LogInfo("Admin %d set order %d to %s", adminID, id, req.Status)
	return s.GetOrder(ctx, id)
}

// ProcessReturn accepts or rejects a requested return. Accepting restocks the
// item and credits price x quantity to the wallet under a reference unique to
// the item, so the refund cannot be paid twice.
func (s *AdminOrderServiceImpl) ProcessReturn(ctx context.Context, adminID, id, itemID uint, req ReturnDecisionRequest) (*models.Order, error) {
	note := utils.SanitizeString(req.Note)
	actor := adminActor(adminID)

	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		order, err := lockOrder(tx, 0, fmt.Sprint(id))
		if err != nil {
			return err
		}
		item, err := findItem(order, itemID)
		if err != nil {
			return err
		}
		if item.ReturnStatus != models.ReturnStatusRequested {
			return utils.BadRequestError(fmt.Sprintf("No pending return for this item (return status %s)", item.ReturnStatus), nil).
				WithType(utils.ErrTypeReturnNotAllowed).
				WithDetails("returnStatus", item.ReturnStatus)
		}

		var history string
		switch req.Action {
		case "accept":
			if err := restock(tx, item.ProductID, item.Size, item.Quantity); err != nil {
				return err
			}
			refund := item.LineTotal()
			oid, iid := order.ID, item.ID
			_, err := utils.CreditWallet(tx, utils.WalletEntry{
				UserID:      order.UserID,
				Amount:      refund,
				Description: fmt.Sprintf("Refund for returned %s from order %s", item.Name, order.OrderID),
				OrderID:     &oid,
				OrderItemID: &iid,
				Reference:   fmt.Sprintf("RETURN-%d", item.ID),
			})
			if err != nil {
				if errors.Is(err, utils.ErrDuplicateWalletReference) {
					return utils.ConflictError("This return was already refunded", err).WithType(utils.ErrTypeReturnNotAllowed)
				}
				return err
			}

			item.Status = models.ItemStatusReturned
			item.ReturnStatus = models.ReturnStatusAccepted
			item.RefundAmount = refund
			if err := tx.Model(item).Updates(map[string]interface{}{
				"status":        item.Status,
				"return_status": item.ReturnStatus,
				"refund_amount": refund,
			}).Error; err != nil {
				return errors.Wrap(err, "accept return")
			}

			order.RefundedAmount = order.RefundedAmount.Add(refund)
			orderUpdates := map[string]interface{}{"refunded_amount": order.RefundedAmount}
			if len(order.ActiveItems()) == 0 {
				orderUpdates["payment_status"] = models.PaymentStatusRefunded
			}
			if err := tx.Model(order).Updates(orderUpdates).Error; err != nil {
				return errors.Wrap(err, "record refund")
			}
			history = fmt.Sprintf("Return accepted for %s, %s refunded to wallet", item.Name, refund.StringFixed(2))
		case "reject":
			item.ReturnStatus = models.ReturnStatusRejected
			if err := tx.Model(item).Update("return_status", item.ReturnStatus).Error; err != nil {
				return errors.Wrap(err, "reject return")
			}
			history = fmt.Sprintf("Return rejected for %s", item.Name)
		default:
			return utils.BadRequestError("Action must be accept or reject", nil).WithType(utils.ErrTypeValidation)
		}

		pending := false
		for _, it := range order.OrderItems {
			if it.ReturnStatus == models.ReturnStatusRequested {
				pending = true
				break
			}
		}
		if !pending {
			if err := tx.Model(order).Update("has_return_request", false).Error; err != nil {
				return errors.Wrap(err, "clear return flag")
			}
		}

		if note != "" {
			history += ": " + note
		}
		return appendHistory(tx, order.ID, order.OrderStatus, history, actor)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	utils.LogInfo("Admin %d processed return (%s) for item %d of order %d", adminID, req.Action, itemID, id)
	return s.GetOrder(ctx, id)
}

func (s *AdminOrderServiceImpl) ListReturnRequests(ctx context.Context, p *utils.Pagination) ([]ReturnRequestView, error) {
	q := s.db.WithContext(ctx).Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN users ON users.id = orders.user_id").
		Where("order_items.return_status = ?", models.ReturnStatusRequested)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count return requests")
	}
	p.SetTotal(total)

	type row struct {
		OrderID           uint
		OrderCode         string
		UserID            uint
		UserEmail         string
		ItemID            uint
		ProductID         uint
		Name              string
		Size              string
		Quantity          int
		Price             decimal.Decimal
		ReturnReason      string
		ReturnRequestedAt *time.Time
	}
	var rows []row
	if err := p.Scope(q).Select(`orders.id AS order_id, orders.order_id AS order_code, orders.user_id,
		users.email AS user_email, order_items.id AS item_id, order_items.product_id, order_items.name,
		order_items.size, order_items.quantity, order_items.price, order_items.return_reason,
		order_items.return_requested_at`).
		Order("order_items.return_requested_at ASC").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list return requests")
	}

	views := make([]ReturnRequestView, 0, len(rows))
	for _, r := range rows {
		item := models.OrderItem{Quantity: r.Quantity, Price: r.Price}
		views = append(views, ReturnRequestView{
			OrderID:           r.OrderID,
			OrderCode:         r.OrderCode,
			UserID:            r.UserID,
			UserEmail:         r.UserEmail,
			ItemID:            r.ItemID,
			ProductID:         r.ProductID,
			Name:              r.Name,
			Size:              r.Size,
			Quantity:          r.Quantity,
			RefundAmount:      item.LineTotal(),
			ReturnReason:      r.ReturnReason,
			ReturnRequestedAt: r.ReturnRequestedAt,
		})
	}
	return views, nil
}
