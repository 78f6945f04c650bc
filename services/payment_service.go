package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

type PaymentServiceImpl struct {
	db      *gorm.DB
	gateway PaymentGateway
	cache   *ReportCache
}

func NewPaymentService(db *gorm.DB, gateway PaymentGateway, cache *ReportCache) *PaymentServiceImpl {
	return &PaymentServiceImpl{db: db, gateway: gateway, cache: cache}
}

// PaymentMethods reports which methods can pay for the current cart
func (s *PaymentServiceImpl) PaymentMethods(ctx context.Context, userID uint) (*PaymentMethodsView, error) {
	db := s.db.WithContext(ctx)
	cart, err := getOrCreateCart(db, userID)
	if err != nil {
		return nil, err
	}
	view, err := buildCartView(db, cart, time.Now())
	if err != nil {
		return nil, err
	}
	wallet, err := utils.GetOrCreateWallet(db, userID)
	if err != nil {
		return nil, err
	}

	total := utils.CalculateTotals(view.Total, decimal.Zero).TotalPrice
	empty := view.ItemCount == 0

	option := func(method string, ok bool, reason string) PaymentMethodOption {
		if empty {
			return PaymentMethodOption{Method: method, Reason: "Cart is empty"}
		}
		if ok {
			reason = ""
		}
		return PaymentMethodOption{Method: method, Available: ok, Reason: reason}
	}

	return &PaymentMethodsView{
		CartTotal:     total,
		WalletBalance: wallet.Balance,
		Methods: []PaymentMethodOption{
			option(models.PaymentMethodCOD, true, ""),
			option(models.PaymentMethodRazorpay, s.gateway.KeyID() != "", "Online payments are unavailable"),
			option(models.PaymentMethodWallet, wallet.Balance.GreaterThanOrEqual(total),
				fmt.Sprintf("Wallet balance %s is less than %s", wallet.Balance.StringFixed(2), total.StringFixed(2))),
		},
	}, nil
}

// CreateRazorpayOrder opens a provider order for an unpaid Razorpay order.
// Each call creates a fresh provider order, so a failed attempt can be retried.
func (s *PaymentServiceImpl) CreateRazorpayOrder(ctx context.Context, userID, orderID uint) (*RazorpayCheckout, error) {
	order, err := loadOrder(s.db.WithContext(ctx), userID, fmt.Sprint(orderID))
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != models.PaymentMethodRazorpay {
		return nil, utils.BadRequestError("Order is not payable online", nil)
	}
	if order.IsPaid {
		return nil, utils.BadRequestError("Order is already paid", nil)
	}
	if order.OrderStatus == models.OrderStatusCancelled {
		return nil, utils.BadRequestError("Order has been cancelled", nil)
	}

	amount := utils.ToPaise(order.TotalPrice)
	rzOrderID, err := s.gateway.CreateOrder(amount, utils.CurrencyINR, order.OrderID)
	if err != nil {
		utils.LogError("Razorpay order creation failed for %s: %v", order.OrderID, err)
		return nil, utils.NewAppError(http.StatusBadGateway, "Could not start the payment, please try again", err).
			WithType(utils.ErrTypePaymentGateway)
	}

	err = utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		payment := models.Payment{
			OrderID:         order.ID,
			UserID:          userID,
			RazorpayOrderID: rzOrderID,
			Amount:          order.TotalPrice,
			Currency:        utils.CurrencyINR,
			Status:          models.PaymentStatusPending,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return errors.Wrap(err, "record payment")
		}
		return errors.Wrap(tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"razorpay_order_id": rzOrderID,
			"payment_status":    models.PaymentStatusPending,
		}).Error, "link razorpay order")
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Razorpay order %s created for %s (%d paise)", rzOrderID, order.OrderID, amount)
	return &RazorpayCheckout{
		KeyID:           s.gateway.KeyID(),
		RazorpayOrderID: rzOrderID,
		Amount:          amount,
		Currency:        utils.CurrencyINR,
		OrderID:         order.ID,
		OrderCode:       order.OrderID,
		TotalPrice:      order.TotalPrice,
	}, nil
}

// VerifyRazorpayPayment checks the checkout signature and marks the order
// paid. Verifying an already paid order succeeds without changes.
func (s *PaymentServiceImpl) VerifyRazorpayPayment(ctx context.Context, userID uint, req VerifyPaymentRequest) (*models.Order, error) {
	var rejected error
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		rejected = nil
		order, err := lockOrder(tx, userID, fmt.Sprint(req.OrderID))
		if err != nil {
			return err
		}
		if order.IsPaid {
			utils.LogInfo("Order %s already paid, verification is a no-op", order.OrderID)
			return nil
		}
		if order.PaymentMethod != models.PaymentMethodRazorpay {
			return utils.BadRequestError("Order is not payable online", nil)
		}

		if req.RazorpayOrderID != order.RazorpayOrderID ||
			!s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
			utils.LogError("Payment signature mismatch for order %s", order.OrderID)
			if err := markFailed(tx, order, req.RazorpayOrderID, "Payment verification failed"); err != nil {
				return err
			}
			rejected = utils.BadRequestError("Payment verification failed", nil).WithType(utils.ErrTypeInvalidSignature)
			return nil
		}

		now := time.Now()
		if order.OrderStatus == models.OrderStatusCancelled {
			return refundLatePayment(tx, order, req, now)
		}
		updates := map[string]interface{}{
			"is_paid":             true,
			"paid_at":             now,
			"payment_status":      models.PaymentStatusPaid,
			"razorpay_payment_id": req.RazorpayPaymentID,
		}
		if order.OrderStatus == models.OrderStatusPending {
			updates["order_status"] = models.OrderStatusProcessing
		}
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "mark order paid")
		}
		if err := tx.Model(&models.Payment{}).Where("razorpay_order_id = ?", req.RazorpayOrderID).
			Updates(map[string]interface{}{
				"status":              models.PaymentStatusPaid,
				"razorpay_payment_id": req.RazorpayPaymentID,
			}).Error; err != nil {
			return errors.Wrap(err, "complete payment")
		}
		if err := appendHistory(tx, order.ID, models.OrderStatusProcessing, "Payment received via Razorpay", actorUser); err != nil {
			return err
		}
		return clearCart(tx, userID)
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		return nil, rejected
	}

	s.cache.Invalidate(ctx)
	utils.LogInfo("Payment %s verified for order %d", req.RazorpayPaymentID, req.OrderID)
	return loadOrder(s.db.WithContext(ctx), userID, fmt.Sprint(req.OrderID))
}

// refundLatePayment settles a payment captured after the order was cancelled.
// The order stays Cancelled and the amount goes back to the wallet.
func refundLatePayment(tx *gorm.DB, order *models.Order, req VerifyPaymentRequest, now time.Time) error {
	refund := order.TotalPrice.Sub(order.RefundedAmount)
	if refund.IsPositive() {
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
	}

	if err := tx.Model(order).Updates(map[string]interface{}{
		"is_paid":             true,
		"paid_at":             now,
		"payment_status":      models.PaymentStatusRefunded,
		"refunded_amount":     order.RefundedAmount,
		"razorpay_payment_id": req.RazorpayPaymentID,
	}).Error; err != nil {
		return errors.Wrap(err, "refund cancelled order")
	}
	if err := tx.Model(&models.Payment{}).Where("razorpay_order_id = ?", req.RazorpayOrderID).
		Updates(map[string]interface{}{
			"status":              models.PaymentStatusPaid,
			"razorpay_payment_id": req.RazorpayPaymentID,
		}).Error; err != nil {
		return errors.Wrap(err, "complete payment")
	}

	utils.LogInfo("Payment for cancelled order %s refunded to wallet (%s)", order.OrderID, refund.StringFixed(2))
	return appendHistory(tx, order.ID, models.OrderStatusCancelled, "Payment received after cancellation, refunded to wallet", actorUser)
}

// MarkPaymentFailed records a failure the checkout widget reported. The
// order stays Pending and can be paid again.
func (s *PaymentServiceImpl) MarkPaymentFailed(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		order, err := lockOrder(tx, userID, fmt.Sprint(orderID))
		if err != nil {
			return err
		}
		if order.IsPaid {
			return utils.BadRequestError("Order is already paid", nil)
		}
		return markFailed(tx, order, order.RazorpayOrderID, "Payment failed")
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Payment failure recorded for order %d", orderID)
	return loadOrder(s.db.WithContext(ctx), userID, fmt.Sprint(orderID))
}

func markFailed(tx *gorm.DB, order *models.Order, rzOrderID, note string) error {
	if err := tx.Model(order).Update("payment_status", models.PaymentStatusFailed).Error; err != nil {
		return errors.Wrap(err, "mark payment failed")
	}
	if rzOrderID != "" {
		if err := tx.Model(&models.Payment{}).
			Where("razorpay_order_id = ? AND status = ?", rzOrderID, models.PaymentStatusPending).
			Update("status", models.PaymentStatusFailed).Error; err != nil {
			return errors.Wrap(err, "mark payment record failed")
		}
	}
	return appendHistory(tx, order.ID, order.OrderStatus, note, actorUser)
}
