package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/config"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderServiceImpl struct {
	db       *gorm.DB
	cfg      *config.Config
	invoices *InvoiceRenderer
	cache    *ReportCache
}

func NewOrderService(db *gorm.DB, cfg *config.Config, invoices *InvoiceRenderer, cache *ReportCache) *OrderServiceImpl {
	return &OrderServiceImpl{db: db, cfg: cfg, invoices: invoices, cache: cache}
}

// CreateOrder turns the cart into an order in one transaction. The bool is
// false when an earlier order with the same idempotency key was returned.
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, userID uint, req CreateOrderRequest) (*models.Order, bool, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		if existing, err := s.findByIdempotencyKey(ctx, userID, key); err != nil || existing != nil {
			return existing, false, err
		}
	}

	var order *models.Order
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		order, err = s.placeOrder(tx, userID, req, key)
		return err
	})
	if err != nil {
		// a concurrent request with the same key committed first
		if key != "" && utils.IsUniqueViolation(err) {
			if existing, findErr := s.findByIdempotencyKey(ctx, userID, key); findErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	s.cache.Invalidate(ctx)
	utils.LogInfo("Order %s placed by user %d: %s via %s", order.OrderID, userID, order.TotalPrice.StringFixed(2), order.PaymentMethod)

	created, err := loadOrder(s.db.WithContext(ctx), userID, fmt.Sprint(order.ID))
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *OrderServiceImpl) findByIdempotencyKey(ctx context.Context, userID uint, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("user_id = ? AND idempotency_key = ?", userID, key).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "check idempotency key")
	}
	utils.LogInfo("Returning existing order %s for repeated checkout key", order.OrderID)
	return loadOrder(s.db.WithContext(ctx), userID, fmt.Sprint(order.ID))
}

func (s *OrderServiceImpl) placeOrder(tx *gorm.DB, userID uint, req CreateOrderRequest, key string) (*models.Order, error) {
	now := time.Now()

	var address models.Address
	if err := tx.Where("id = ? AND user_id = ?", req.AddressID, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("Address not found", nil)
		}
		return nil, errors.Wrap(err, "load address")
	}

	cart, err := lockCart(tx, userID)
	if err != nil {
		return nil, err
	}
	var lines []models.CartItem
	if err := tx.Where("cart_id = ?", cart.ID).Order("id ASC").Find(&lines).Error; err != nil {
		return nil, errors.Wrap(err, "load cart items")
	}
	if len(lines) == 0 {
		return nil, utils.BadRequestError("Your cart is empty", nil).WithType(utils.ErrTypeEmptyCart)
	}

	productIDs := make([]uint, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := loadProducts(tx, productIDs)
	if err != nil {
		return nil, err
	}
	categoryIDs := make([]uint, 0, len(products))
	for _, p := range products {
		categoryIDs = append(categoryIDs, p.CategoryID)
	}
	offers, err := utils.LoadActiveOffers(tx, productIDs, categoryIDs, now)
	if err != nil {
		return nil, errors.Wrap(err, "load offers")
	}

	items := make([]models.OrderItem, 0, len(lines))
	itemsPrice := decimal.Zero
	offerDiscount := decimal.Zero
	for _, line := range lines {
		product := products[line.ProductID]
		if product == nil {
			return nil, utils.BadRequestError("A product in your cart no longer exists", nil).
				WithType(utils.ErrTypeItemUnavailable).
				WithDetails("productId", line.ProductID).
				WithDetails("reason", utils.ReasonProductMissing)
		}
		quantity := checkoutQuantity(product, line)
		if err := checkPurchasable(product, line.Size, quantity); err != nil {
			return nil, err
		}

		applied := offers.For(product)
		item := models.OrderItem{
			ProductID:     product.ID,
			Name:          product.Name,
			Image:         product.MainImage(),
			Brand:         product.Brand,
			CategoryID:    product.CategoryID,
			Size:          line.Size,
			Quantity:      quantity,
			Price:         applied.FinalPrice,
			OriginalPrice: applied.OriginalPrice,
			OfferDiscount: applied.Discount,
			Status:        models.ItemStatusActive,
			ReturnStatus:  models.ReturnStatusNotApplicable,
		}
		qty := decimal.NewFromInt(int64(quantity))
		itemsPrice = itemsPrice.Add(item.LineTotal())
		offerDiscount = offerDiscount.Add(applied.Discount.Mul(qty))
		items = append(items, item)
	}

	couponCode := ""
	couponDiscount := decimal.Zero
	if code := utils.NormalizeCode(req.CouponCode); code != "" {
		couponDiscount, err = redeemCoupon(tx, code, itemsPrice, now)
		if err != nil {
			return nil, err
		}
		couponCode = code
	}

	totals := utils.CalculateTotals(itemsPrice, couponDiscount)

	order := &models.Order{
		OrderID:         utils.GenerateOrderID(now),
		UserID:          userID,
		OrderItems:      items,
		ShippingAddress: address.Snapshot(),
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		DiscountPrice:   offerDiscount,
		CouponCode:      couponCode,
		CouponDiscount:  totals.CouponDiscount,
		TotalPrice:      totals.TotalPrice,
		RefundedAmount:  decimal.Zero,
		OrderStatus:     models.OrderStatusPending,
	}
	if key != "" {
		order.IdempotencyKey = &key
	}
	// Razorpay orders wait in Pending until the payment is verified
	if req.PaymentMethod != models.PaymentMethodRazorpay {
		order.OrderStatus = models.OrderStatusProcessing
	}

	if err := tx.Create(order).Error; err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	for _, item := range items {
		if err := deductStock(tx, item.ProductID, item.Size, item.Quantity, item.Name); err != nil {
			return nil, err
		}
	}

	if req.PaymentMethod == models.PaymentMethodWallet {
		if order.TotalPrice.IsPositive() {
			orderID := order.ID
			_, err := utils.DebitWallet(tx, utils.WalletEntry{
				UserID:      userID,
				Amount:      order.TotalPrice,
				Description: fmt.Sprintf("Payment for order %s", order.OrderID),
				OrderID:     &orderID,
				Reference:   fmt.Sprintf("ORDER-%d", order.ID),
			})
			if err != nil {
				if appErr := utils.GetAppError(err); appErr != nil && appErr.ErrorType == utils.ErrTypeInsufficientBalance {
					return nil, appErr.WithDetails("totalPrice", order.TotalPrice.StringFixed(2))
				}
				return nil, err
			}
		}
		order.IsPaid = true
		order.PaidAt = &now
		order.PaymentStatus = models.PaymentStatusPaid
		if err := tx.Model(order).Updates(map[string]interface{}{
			"is_paid":        true,
			"paid_at":        now,
			"payment_status": models.PaymentStatusPaid,
		}).Error; err != nil {
			return nil, errors.Wrap(err, "mark order paid")
		}
	}

	if err := appendHistory(tx, order.ID, order.OrderStatus, "Order placed", actorUser); err != nil {
		return nil, err
	}

	if req.PaymentMethod != models.PaymentMethodRazorpay {
		if err := clearCart(tx, userID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// redeemCoupon locks the coupon, validates it against amount and takes one use
func redeemCoupon(tx *gorm.DB, code string, amount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	var coupon models.Coupon
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, utils.BadRequestError("Invalid coupon code", nil).WithType(utils.ErrTypeInvalidCoupon)
		}
		return decimal.Zero, errors.Wrap(err, "load coupon")
	}
	if err := coupon.Validate(now, amount); err != nil {
		return decimal.Zero, couponError(err, &coupon)
	}

	result := tx.Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit = 0 OR usage_count < usage_limit)", coupon.ID).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return decimal.Zero, errors.Wrap(result.Error, "redeem coupon")
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, couponError(models.ErrCouponUsageLimit, &coupon)
	}
	return coupon.DiscountFor(amount), nil
}

func couponError(err error, coupon *models.Coupon) error {
	appErr := utils.BadRequestError(fmt.Sprintf("Coupon %s cannot be applied: %v", coupon.Code, err), nil).
		WithType(utils.ErrTypeInvalidCoupon)
	if errors.Is(err, models.ErrCouponMinPurchase) {
		appErr.WithDetails("minPurchase", coupon.MinPurchase.StringFixed(2))
	}
	return appErr
}

func (s *OrderServiceImpl) ListOrders(ctx context.Context, userID uint, status string, p *utils.Pagination) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("order_status = ?", status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count orders")
	}
	p.SetTotal(total)

	var orders []models.Order
	if err := p.Scope(q).Preload("OrderItems").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

func (s *OrderServiceImpl) GetOrder(ctx context.Context, userID uint, ref string) (*models.Order, error) {
	return loadOrder(s.db.WithContext(ctx), userID, ref)
}

func (s *OrderServiceImpl) CancelOrder(ctx context.Context, userID uint, ref, reason string) (*models.Order, error) {
	reason = utils.SanitizeString(reason)
	var orderID uint
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		order, err := lockOrder(tx, userID, ref)
		if err != nil {
			return err
		}
		orderID = order.ID
		if order.OrderStatus != models.OrderStatusPending && order.OrderStatus != models.OrderStatusProcessing {
			return utils.BadRequestError(fmt.Sprintf("Orders that are %s cannot be cancelled", order.OrderStatus), nil).
				WithType(utils.ErrTypeCancelNotAllowed).
				WithDetails("orderStatus", order.OrderStatus)
		}
		return cancelWholeOrder(tx, order, reason, actorUser)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	utils.LogInfo("Order %d cancelled by user %d", orderID, userID)
	return loadOrder(s.db.WithContext(ctx), userID, fmt.Sprint(orderID))
}

// CancelOrderItem cancels one line of a Processing order and reprices the
// order. A prepaid order gets the difference back in the wallet.
func (s *OrderServiceImpl) CancelOrderItem(ctx context.Context, userID uint, ref string, itemID uint, reason string) (*models.Order, error) {
	reason = utils.SanitizeString(reason)
	var orderID uint
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		order, err := lockOrder(tx, userID, ref)
		if err != nil {
			return err
		}
		orderID = order.ID
		if order.OrderStatus != models.OrderStatusProcessing {
			return utils.BadRequestError("Items can only be cancelled while the order is Processing", nil).
				WithType(utils.ErrTypeCancelNotAllowed).
				WithDetails("orderStatus", order.OrderStatus)
		}
		item, err := findItem(order, itemID)
		if err != nil {
			return err
		}
		if item.Status != models.ItemStatusActive {
			return utils.BadRequestError(fmt.Sprintf("Item is already %s", strings.ToLower(item.Status)), nil).
				WithType(utils.ErrTypeCancelNotAllowed)
		}

		if err := restock(tx, item.ProductID, item.Size, item.Quantity); err != nil {
			return err
		}
		item.Status = models.ItemStatusCancelled
		item.CancelReason = reason

		previousTotal := order.TotalPrice
		repriceOrder(order)
		refund := previousTotal.Sub(order.TotalPrice)

		if order.IsPrepaid() && refund.IsPositive() {
			oid, iid := order.ID, item.ID
			_, err := utils.CreditWallet(tx, utils.WalletEntry{
				UserID:      order.UserID,
				Amount:      refund,
				Description: fmt.Sprintf("Refund for %s cancelled from order %s", item.Name, order.OrderID),
				OrderID:     &oid,
				OrderItemID: &iid,
				Reference:   fmt.Sprintf("CANCEL-ITEM-%d", item.ID),
			})
			if err != nil {
				if errors.Is(err, utils.ErrDuplicateWalletReference) {
					return utils.ConflictError("This item was already refunded", err)
				}
				return err
			}
			order.RefundedAmount = order.RefundedAmount.Add(refund)
			item.RefundAmount = refund
		}

		if err := tx.Model(item).Updates(map[string]interface{}{
			"status":        item.Status,
			"cancel_reason": reason,
			"refund_amount": item.RefundAmount,
		}).Error; err != nil {
			return errors.Wrap(err, "cancel item")
		}
		if err := savePricing(tx, order); err != nil {
			return err
		}
		if err := appendHistory(tx, order.ID, order.OrderStatus, fmt.Sprintf("Item %s (size %s) cancelled", item.Name, item.Size), actorUser); err != nil {
			return err
		}

		if len(order.ActiveItems()) == 0 {
			if order.IsPrepaid() {
				order.PaymentStatus = models.PaymentStatusRefunded
				if err := tx.Model(order).Update("payment_status", order.PaymentStatus).Error; err != nil {
					return errors.Wrap(err, "mark order refunded")
				}
			}
			return cancelWholeOrder(tx, order, "All items cancelled", actorSystem)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	utils.LogInfo("Item %d of order %d cancelled by user %d", itemID, orderID, userID)
	return loadOrder(s.db.WithContext(ctx), userID, fmt.Sprint(orderID))
}

func (s *OrderServiceImpl) RequestReturn(ctx context.Context, userID uint, ref string, itemID uint, reason string) (*models.Order, error) {
	reason = utils.SanitizeString(reason)
	if reason == "" {
		return nil, utils.BadRequestError("A return reason is required", nil).WithType(utils.ErrTypeValidation)
	}

	var orderID uint
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		order, err := lockOrder(tx, userID, ref)
		if err != nil {
			return err
		}
		orderID = order.ID
		if order.OrderStatus != models.OrderStatusDelivered {
			return utils.BadRequestError("Only delivered orders can be returned", nil).
				WithType(utils.ErrTypeReturnNotAllowed).
				WithDetails("orderStatus", order.OrderStatus)
		}
		if days := s.cfg.ReturnWindowDays; days > 0 && order.DeliveredAt != nil &&
			time.Since(*order.DeliveredAt) > time.Duration(days)*24*time.Hour {
			return utils.BadRequestError(fmt.Sprintf("Returns are only accepted within %d days of delivery", days), nil).
				WithType(utils.ErrTypeReturnNotAllowed)
		}

		item, err := findItem(order, itemID)
		if err != nil {
			return err
		}
		if item.Status != models.ItemStatusActive || item.ReturnStatus != models.ReturnStatusNotApplicable {
			return utils.BadRequestError("A return cannot be requested for this item", nil).
				WithType(utils.ErrTypeReturnNotAllowed).
				WithDetails("itemStatus", item.Status).
				WithDetails("returnStatus", item.ReturnStatus)
		}

		now := time.Now()
		if err := tx.Model(item).Updates(map[string]interface{}{
			"return_status":       models.ReturnStatusRequested,
			"return_reason":       reason,
			"return_requested_at": now,
		}).Error; err != nil {
			return errors.Wrap(err, "request return")
		}
		if err := tx.Model(order).Update("has_return_request", true).Error; err != nil {
			return errors.Wrap(err, "flag return request")
		}
		return appendHistory(tx, order.ID, order.OrderStatus, fmt.Sprintf("Return requested for %s: %s", item.Name, reason), actorUser)
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Return requested for item %d of order %d by user %d", itemID, orderID, userID)
	return loadOrder(s.db.WithContext(ctx), userID, fmt.Sprint(orderID))
}

// Invoice renders the order's PDF invoice. Razorpay orders only get one once
// the payment went through.
func (s *OrderServiceImpl) Invoice(ctx context.Context, userID uint, ref string) (*models.Order, []byte, error) {
	order, err := loadOrder(s.db.WithContext(ctx), userID, ref)
	if err != nil {
		return nil, nil, err
	}
	if order.PaymentMethod == models.PaymentMethodRazorpay && !order.IsPaid {
		return nil, nil, utils.BadRequestError("Invoice is available once the payment is complete", nil)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, order.UserID).Error; err != nil {
		return nil, nil, errors.Wrap(err, "load invoice customer")
	}
	order.User = &user

	pdf, err := s.invoices.Render(order)
	if err != nil {
		return nil, nil, err
	}
	return order, pdf, nil
}
