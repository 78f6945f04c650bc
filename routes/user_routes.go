package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/middleware"
)

// initUserRoutes registers every route that needs a signed-in user
func initUserRoutes(api *gin.RouterGroup, sc *ServiceContainer) {
	user := api.Group("")
	user.Use(middleware.UserProtect())

	users := user.Group("/users")
	{
		users.GET("/addresses", sc.AddressController.ListAddresses)
		users.POST("/addresses", sc.AddressController.AddAddress)
		users.PUT("/addresses/:addressId", sc.AddressController.UpdateAddress)
		users.DELETE("/addresses/:addressId", sc.AddressController.DeleteAddress)
		users.PATCH("/addresses/:addressId/default", sc.AddressController.SetDefaultAddress)

		users.GET("/referral", sc.WalletController.GetReferral)
		users.POST("/referral/apply", sc.WalletController.ApplyReferral)
	}

	cart := user.Group("/cart")
	{
		cart.GET("", sc.CartController.GetCart)
		cart.POST("", sc.CartController.AddToCart)
		cart.PUT("/:itemId", sc.CartController.UpdateCartItem)
		cart.DELETE("/:itemId", sc.CartController.RemoveFromCart)
	}

	wishlist := user.Group("/wishlist")
	{
		wishlist.GET("", sc.WishlistController.GetWishlist)
		wishlist.POST("", sc.WishlistController.AddToWishlist)
		wishlist.DELETE("/:productId", sc.WishlistController.RemoveFromWishlist)
	}

	orders := user.Group("/orders")
	{
		orders.POST("", sc.OrderController.CreateOrder)
		orders.GET("", sc.OrderController.ListOrders)
		orders.GET("/:id", sc.OrderController.GetOrder)
		orders.PUT("/:id/cancel", sc.OrderController.CancelOrder)
		orders.PUT("/:id/items/:itemId/cancel", sc.OrderController.CancelOrderItem)
		orders.PUT("/:id/items/:itemId/return", sc.OrderController.RequestReturn)
		orders.GET("/:id/invoice", sc.OrderController.DownloadInvoice)
	}

	coupons := user.Group("/coupons")
	{
		coupons.GET("", sc.CouponController.ListAvailableCoupons)
		coupons.POST("/validate", sc.CouponController.ValidateCoupon)
	}

	payments := user.Group("/payments")
	{
		payments.GET("/methods", sc.PaymentController.GetPaymentMethods)
		payments.POST("/razorpay/order", sc.PaymentController.CreateRazorpayOrder)
		payments.POST("/razorpay/verify", sc.PaymentController.VerifyRazorpayPayment)
		payments.POST("/razorpay/failure", sc.PaymentController.ReportPaymentFailure)
	}

	user.GET("/wallet", sc.WalletController.GetWallet)
}
