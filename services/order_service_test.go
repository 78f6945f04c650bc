package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zekoya/storefront/config"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/testutil"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

// fakeGateway signs like Razorpay without calling it
type fakeGateway struct {
	secret string
	mu     sync.Mutex
	n      int
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("order_test_%d", g.n), nil
}

func (g *fakeGateway) VerifySignature(providerOrderID, paymentID, signature string) bool {
	return VerifyRazorpaySignature(g.secret, providerOrderID, paymentID, signature)
}

type storeFixture struct {
	db       *gorm.DB
	orders   *OrderServiceImpl
	admin    *AdminOrderServiceImpl
	payments *PaymentServiceImpl
	gateway  *fakeGateway
	category *models.Category
	adminID  uint
}

func newStoreFixture(t *testing.T) *storeFixture {
	db := testutil.SetupTestDB(t)
	cfg := config.AppConfig
	gateway := &fakeGateway{secret: "test_secret"}
	return &storeFixture{
		db:       db,
		orders:   NewOrderService(db, cfg, NewInvoiceRenderer(t.TempDir()), nil),
		admin:    NewAdminOrderService(db, nil),
		payments: NewPaymentService(db, gateway, nil),
		gateway:  gateway,
		category: testutil.CreateCategory(t, db, "Shirts"),
		adminID:  testutil.CreateAdmin(t, db).ID,
	}
}

// buyer creates a user with an address and one cart line
func (f *storeFixture) buyer(t *testing.T, productID uint, size string, quantity int) (*models.User, *models.Address) {
	user := testutil.CreateUser(t, f.db)
	address := testutil.CreateAddress(t, f.db, user.ID)
	testutil.AddCartItem(t, f.db, user.ID, productID, size, quantity)
	return user, address
}

func (f *storeFixture) orderCount(t *testing.T, userID uint) int64 {
	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func (f *storeFixture) cartLines(t *testing.T, userID uint) int64 {
	var n int64
	require.NoError(t, f.db.Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).Count(&n).Error)
	return n
}

func TestOrderFlows(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	t.Run("wallet checkout with short balance changes nothing", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "550", map[string]int{models.SizeM: 5})
		user, address := f.buyer(t, product.ID, models.SizeM, 1)
		testutil.FundWallet(t, f.db, user.ID, "500")

		order, created, err := f.orders.CreateOrder(ctx, user.ID, CreateOrderRequest{
			AddressID:     address.ID,
			PaymentMethod: models.PaymentMethodWallet,
		})
		require.Error(t, err)
		assert.Nil(t, order)
		assert.False(t, created)

		appErr := utils.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, 400, appErr.Code)
		assert.Equal(t, utils.ErrTypeInsufficientBalance, appErr.ErrorType)

		assert.True(t, decimal.NewFromInt(500).Equal(testutil.WalletBalance(t, f.db, user.ID)))
		assert.Equal(t, 5, testutil.SizeStock(t, f.db, product.ID, models.SizeM))
		assert.Zero(t, f.orderCount(t, user.ID))

		var lines int64
		require.NoError(t, f.db.Model(&models.CartItem{}).
			Joins("JOIN carts ON carts.id = cart_items.cart_id").
			Where("carts.user_id = ?", user.ID).Count(&lines).Error)
		assert.Equal(t, int64(1), lines)
	})

	t.Run("wallet checkout debits the total", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "550", map[string]int{models.SizeM: 5})
		user, address := f.buyer(t, product.ID, models.SizeM, 1)
		testutil.FundWallet(t, f.db, user.ID, "1000")

		order, created, err := f.orders.CreateOrder(ctx, user.ID, CreateOrderRequest{
			AddressID:     address.ID,
			PaymentMethod: models.PaymentMethodWallet,
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, order.IsPaid)
		assert.Equal(t, models.OrderStatusProcessing, order.OrderStatus)
		// 550 + 50 shipping below the free shipping threshold
		assert.True(t, decimal.NewFromInt(600).Equal(order.TotalPrice), order.TotalPrice.String())
		assert.True(t, decimal.NewFromInt(400).Equal(testutil.WalletBalance(t, f.db, user.ID)))
		assert.Equal(t, 4, testutil.SizeStock(t, f.db, product.ID, models.SizeM))
	})

	t.Run("repeated idempotency key returns the first order", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "300", map[string]int{models.SizeL: 5})
		user, address := f.buyer(t, product.ID, models.SizeL, 1)
		req := CreateOrderRequest{AddressID: address.ID, PaymentMethod: models.PaymentMethodCOD, IdempotencyKey: "checkout-1"}

		first, created, err := f.orders.CreateOrder(ctx, user.ID, req)
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := f.orders.CreateOrder(ctx, user.ID, req)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int64(1), f.orderCount(t, user.ID))
		assert.Equal(t, 4, testutil.SizeStock(t, f.db, product.ID, models.SizeL))
	})

	t.Run("accepted return refunds price times quantity and restocks", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "200", map[string]int{models.SizeM: 5})
		user, address := f.buyer(t, product.ID, models.SizeM, 2)

		order, _, err := f.orders.CreateOrder(ctx, user.ID, CreateOrderRequest{
			AddressID:     address.ID,
			PaymentMethod: models.PaymentMethodCOD,
		})
		require.NoError(t, err)
		require.Len(t, order.OrderItems, 1)
		itemID := order.OrderItems[0].ID
		assert.Equal(t, 3, testutil.SizeStock(t, f.db, product.ID, models.SizeM))

		_, err = f.orders.RequestReturn(ctx, user.ID, order.OrderID, itemID, "Too small")
		require.Error(t, err, "returns need a delivered order")
		assert.True(t, utils.HasErrorType(err, utils.ErrTypeReturnNotAllowed))

		delivered, err := f.admin.UpdateOrderStatus(ctx, f.adminID, order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
		require.NoError(t, err)
		assert.True(t, delivered.IsPaid, "COD is paid on delivery")

		requested, err := f.orders.RequestReturn(ctx, user.ID, order.OrderID, itemID, "Too small")
		require.NoError(t, err)
		assert.True(t, requested.HasReturnRequest)
		assert.Equal(t, models.ReturnStatusRequested, requested.OrderItems[0].ReturnStatus)

		processed, err := f.admin.ProcessReturn(ctx, f.adminID, order.ID, itemID, ReturnDecisionRequest{Action: "accept"})
		require.NoError(t, err)
		assert.Equal(t, models.ItemStatusReturned, processed.OrderItems[0].Status)
		assert.False(t, processed.HasReturnRequest)

		assert.True(t, decimal.NewFromInt(400).Equal(testutil.WalletBalance(t, f.db, user.ID)))
		assert.Equal(t, 5, testutil.SizeStock(t, f.db, product.ID, models.SizeM))

		_, err = f.admin.ProcessReturn(ctx, f.adminID, order.ID, itemID, ReturnDecisionRequest{Action: "accept"})
		require.Error(t, err)
		assert.True(t, utils.HasErrorType(err, utils.ErrTypeReturnNotAllowed))
		assert.True(t, decimal.NewFromInt(400).Equal(testutil.WalletBalance(t, f.db, user.ID)), "refund is paid once")
	})

	t.Run("concurrent checkouts of the last unit create one order", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "999", map[string]int{models.SizeS: 1})
		const buyers = 2
		users := make([]*models.User, buyers)
		addresses := make([]*models.Address, buyers)
		for i := range users {
			users[i], addresses[i] = f.buyer(t, product.ID, models.SizeS, 1)
		}

		var wg sync.WaitGroup
		errs := make([]error, buyers)
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, errs[i] = f.orders.CreateOrder(ctx, users[i].ID, CreateOrderRequest{
					AddressID:     addresses[i].ID,
					PaymentMethod: models.PaymentMethodCOD,
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, utils.HasErrorType(err, utils.ErrTypeInsufficientStock) ||
				utils.HasErrorType(err, utils.ErrTypeItemUnavailable), err.Error())
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 0, testutil.SizeStock(t, f.db, product.ID, models.SizeS))

		var orders int64
		require.NoError(t, f.db.Model(&models.OrderItem{}).Where("product_id = ?", product.ID).Count(&orders).Error)
		assert.Equal(t, int64(1), orders)
	})

	t.Run("admin status rules", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "300", map[string]int{models.SizeM: 5})
		user, address := f.buyer(t, product.ID, models.SizeM, 1)
		testutil.FundWallet(t, f.db, user.ID, "1000")

		order, _, err := f.orders.CreateOrder(ctx, user.ID, CreateOrderRequest{
			AddressID:     address.ID,
			PaymentMethod: models.PaymentMethodWallet,
		})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(650).Equal(testutil.WalletBalance(t, f.db, user.ID)))

		shipped, err := f.admin.UpdateOrderStatus(ctx, f.adminID, order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipped, shipped.OrderStatus)

		_, err = f.admin.UpdateOrderStatus(ctx, f.adminID, order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
		assert.True(t, utils.HasErrorType(err, utils.ErrTypeInvalidTransition), "cannot move backwards")

		cancelled, err := f.admin.UpdateOrderStatus(ctx, f.adminID, order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusCancelled, Note: "Lost in transit"})
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, cancelled.OrderStatus)
		assert.Equal(t, models.PaymentStatusRefunded, cancelled.PaymentStatus)
		assert.True(t, decimal.NewFromInt(1000).Equal(testutil.WalletBalance(t, f.db, user.ID)))
		assert.Equal(t, 5, testutil.SizeStock(t, f.db, product.ID, models.SizeM))

		_, err = f.admin.UpdateOrderStatus(ctx, f.adminID, order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
		assert.True(t, utils.HasErrorType(err, utils.ErrTypeInvalidTransition), "refunded orders stay cancelled")

		var history int64
		require.NoError(t, f.db.Model(&models.OrderStatusHistory{}).Where("order_id = ?", order.ID).Count(&history).Error)
		assert.Equal(t, int64(3), history)
	})

	t.Run("razorpay order is paid only with a valid signature", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "1200", map[string]int{models.SizeXL: 3})
		user, address := f.buyer(t, product.ID, models.SizeXL, 1)

		order, _, err := f.orders.CreateOrder(ctx, user.ID, CreateOrderRequest{
			AddressID:     address.ID,
			PaymentMethod: models.PaymentMethodRazorpay,
		})
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPending, order.OrderStatus)
		assert.False(t, order.IsPaid)

		_, err = f.admin.UpdateOrderStatus(ctx, f.adminID, order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
		assert.True(t, utils.HasErrorType(err, utils.ErrTypeInvalidTransition), "unpaid razorpay orders stay put")

		checkout, err := f.payments.CreateRazorpayOrder(ctx, user.ID, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(120000), checkout.Amount)

		_, err = f.payments.VerifyRazorpayPayment(ctx, user.ID, VerifyPaymentRequest{
			OrderID:           order.ID,
			RazorpayOrderID:   checkout.RazorpayOrderID,
			RazorpayPaymentID: "pay_1",
			RazorpaySignature: "forged",
		})
		require.Error(t, err)
		assert.True(t, utils.HasErrorType(err, utils.ErrTypeInvalidSignature))

		req := VerifyPaymentRequest{
			OrderID:           order.ID,
			RazorpayOrderID:   checkout.RazorpayOrderID,
			RazorpayPaymentID: "pay_1",
			RazorpaySignature: sign(f.gateway.secret, checkout.RazorpayOrderID, "pay_1"),
		}
		paid, err := f.payments.VerifyRazorpayPayment(ctx, user.ID, req)
		require.NoError(t, err)
		assert.True(t, paid.IsPaid)
		assert.Equal(t, models.OrderStatusProcessing, paid.OrderStatus)

		again, err := f.payments.VerifyRazorpayPayment(ctx, user.ID, req)
		require.NoError(t, err)
		assert.Equal(t, paid.ID, again.ID)
	})

	t.Run("payment after cancellation goes back to the wallet", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "1200", map[string]int{models.SizeXL: 3})
		user, address := f.buyer(t, product.ID, models.SizeXL, 1)

		order, _, err := f.orders.CreateOrder(ctx, user.ID, CreateOrderRequest{
			AddressID:     address.ID,
			PaymentMethod: models.PaymentMethodRazorpay,
		})
		require.NoError(t, err)
		checkout, err := f.payments.CreateRazorpayOrder(ctx, user.ID, order.ID)
		require.NoError(t, err)

		cancelled, err := f.orders.CancelOrder(ctx, user.ID, order.OrderID, "Ordered by mistake")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, cancelled.OrderStatus)
		assert.True(t, testutil.WalletBalance(t, f.db, user.ID).IsZero(), "nothing was paid yet")
		assert.Equal(t, 3, testutil.SizeStock(t, f.db, product.ID, models.SizeXL))

		settled, err := f.payments.VerifyRazorpayPayment(ctx, user.ID, VerifyPaymentRequest{
			OrderID:           order.ID,
			RazorpayOrderID:   checkout.RazorpayOrderID,
			RazorpayPaymentID: "pay_late",
			RazorpaySignature: sign(f.gateway.secret, checkout.RazorpayOrderID, "pay_late"),
		})
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, settled.OrderStatus)
		assert.Equal(t, models.PaymentStatusRefunded, settled.PaymentStatus)
		assert.True(t, settled.TotalPrice.Equal(settled.RefundedAmount))
		assert.True(t, decimal.NewFromInt(1200).Equal(testutil.WalletBalance(t, f.db, user.ID)))
		assert.Equal(t, 3, testutil.SizeStock(t, f.db, product.ID, models.SizeXL))
		assert.Equal(t, int64(1), f.cartLines(t, user.ID), "the cart is left alone")

		_, err = f.admin.UpdateOrderStatus(ctx, f.adminID, order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
		assert.True(t, utils.HasErrorType(err, utils.ErrTypeInvalidTransition), "refunded orders stay cancelled")
	})

	t.Run("buyers cannot cancel once shipped", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "300", map[string]int{models.SizeM: 5})
		user, address := f.buyer(t, product.ID, models.SizeM, 1)

		order, _, err := f.orders.CreateOrder(ctx, user.ID, CreateOrderRequest{
			AddressID:     address.ID,
			PaymentMethod: models.PaymentMethodCOD,
		})
		require.NoError(t, err)

		for _, status := range []string{models.OrderStatusShipped, models.OrderStatusDelivered} {
			_, err = f.admin.UpdateOrderStatus(ctx, f.adminID, order.ID, UpdateOrderStatusRequest{Status: status})
			require.NoError(t, err)

			_, err = f.orders.CancelOrder(ctx, user.ID, order.OrderID, "Too late")
			require.Error(t, err, status)
			assert.True(t, utils.HasErrorType(err, utils.ErrTypeCancelNotAllowed), status)
		}
		assert.Equal(t, 4, testutil.SizeStock(t, f.db, product.ID, models.SizeM))
	})

	t.Run("prepaid cancel refunds what is left and restocks", func(t *testing.T) {
		tee := testutil.CreateProduct(t, f.db, f.category.ID, "400", map[string]int{models.SizeM: 5})
		beanie := testutil.CreateProduct(t, f.db, f.category.ID, "300", map[string]int{models.SizeL: 4})
		user, address := f.buyer(t, tee.ID, models.SizeM, 2)
		testutil.AddCartItem(t, f.db, user.ID, beanie.ID, models.SizeL, 1)
		testutil.FundWallet(t, f.db, user.ID, "2000")

		order, _, err := f.orders.CreateOrder(ctx, user.ID, CreateOrderRequest{
			AddressID:     address.ID,
			PaymentMethod: models.PaymentMethodWallet,
		})
		require.NoError(t, err)
		require.Len(t, order.OrderItems, 2)
		assert.True(t, decimal.NewFromInt(1100).Equal(order.TotalPrice), order.TotalPrice.String())
		assert.True(t, decimal.NewFromInt(900).Equal(testutil.WalletBalance(t, f.db, user.ID)))

		var beanieItem uint
		for _, item := range order.OrderItems {
			if item.ProductID == beanie.ID {
				beanieItem = item.ID
			}
		}
		// 800 left is below free shipping, so 850 is still owed
		partial, err := f.orders.CancelOrderItem(ctx, user.ID, order.OrderID, beanieItem, "Wrong colour")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(850).Equal(partial.TotalPrice), partial.TotalPrice.String())
		assert.True(t, decimal.NewFromInt(250).Equal(partial.RefundedAmount))
		assert.True(t, decimal.NewFromInt(1150).Equal(testutil.WalletBalance(t, f.db, user.ID)))

		cancelled, err := f.orders.CancelOrder(ctx, user.ID, order.OrderID, "Changed my mind")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, cancelled.OrderStatus)
		assert.Equal(t, models.PaymentStatusRefunded, cancelled.PaymentStatus)
		assert.True(t, decimal.NewFromInt(1100).Equal(cancelled.RefundedAmount), cancelled.RefundedAmount.String())
		assert.True(t, decimal.NewFromInt(2000).Equal(testutil.WalletBalance(t, f.db, user.ID)))
		assert.Equal(t, 5, testutil.SizeStock(t, f.db, tee.ID, models.SizeM))
		assert.Equal(t, 4, testutil.SizeStock(t, f.db, beanie.ID, models.SizeL))

		_, err = f.orders.CancelOrder(ctx, user.ID, order.OrderID, "Again")
		assert.True(t, utils.HasErrorType(err, utils.ErrTypeCancelNotAllowed))
		assert.True(t, decimal.NewFromInt(2000).Equal(testutil.WalletBalance(t, f.db, user.ID)), "refund is paid once")
	})

	t.Run("reopening a cod order takes the stock again", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "250", map[string]int{models.SizeS: 5})
		user, address := f.buyer(t, product.ID, models.SizeS, 2)

		order, _, err := f.orders.CreateOrder(ctx, user.ID, CreateOrderRequest{
			AddressID:     address.ID,
			PaymentMethod: models.PaymentMethodCOD,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, testutil.SizeStock(t, f.db, product.ID, models.SizeS))

		cancelled, err := f.orders.CancelOrder(ctx, user.ID, order.OrderID, "")
		require.NoError(t, err)
		assert.NotEqual(t, models.PaymentStatusRefunded, cancelled.PaymentStatus)
		assert.Equal(t, 5, testutil.SizeStock(t, f.db, product.ID, models.SizeS))

		reopened, err := f.admin.UpdateOrderStatus(ctx, f.adminID, order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusProcessing, reopened.OrderStatus)
		assert.Nil(t, reopened.CancelledAt)
		require.Len(t, reopened.OrderItems, 1)
		assert.Equal(t, models.ItemStatusActive, reopened.OrderItems[0].Status)
		assert.Equal(t, 3, testutil.SizeStock(t, f.db, product.ID, models.SizeS))
	})

	t.Run("checkout takes the quantity the cart shows", func(t *testing.T) {
		product := testutil.CreateProduct(t, f.db, f.category.ID, "300", map[string]int{models.SizeM: 2})
		user, address := f.buyer(t, product.ID, models.SizeM, 4)

		view, err := NewCartService(f.db, config.AppConfig).GetCart(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		assert.True(t, view.Items[0].StockReduced)
		assert.Equal(t, 2, view.Items[0].Quantity)

		order, _, err := f.orders.CreateOrder(ctx, user.ID, CreateOrderRequest{
			AddressID:     address.ID,
			PaymentMethod: models.PaymentMethodCOD,
		})
		require.NoError(t, err)
		require.Len(t, order.OrderItems, 1)
		assert.Equal(t, 2, order.OrderItems[0].Quantity)
		assert.True(t, decimal.NewFromInt(650).Equal(order.TotalPrice), order.TotalPrice.String())
		assert.Equal(t, 0, testutil.SizeStock(t, f.db, product.ID, models.SizeM))
	})
}
