package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/middleware"
)

// initAdminRoutes initializes all admin-related routes
func initAdminRoutes(api *gin.RouterGroup, sc *ServiceContainer) {
	admin := api.Group("/admin")
	admin.Use(middleware.AdminProtect())

	catalog := sc.AdminCatalogController
	products := admin.Group("/products")
	{
		products.GET("", catalog.ListProducts)
		products.POST("", catalog.CreateProduct)
		products.GET("/:id", catalog.GetProduct)
		products.PUT("/:id", catalog.UpdateProduct)
		products.DELETE("/:id", catalog.DeleteProduct)
		products.PATCH("/:id/list", catalog.ToggleProductListed)
		products.PATCH("/:id/feature", catalog.ToggleProductFeatured)
	}

	categories := admin.Group("/categories")
	{
		categories.GET("", catalog.ListCategories)
		categories.POST("", catalog.CreateCategory)
		categories.PUT("/:id", catalog.UpdateCategory)
		categories.DELETE("/:id", catalog.DeleteCategory)
		categories.PATCH("/:id/list", catalog.ToggleCategoryListed)
	}

	orders := admin.Group("/orders")
	{
		orders.GET("", sc.AdminOrderController.ListOrders)
		orders.GET("/:id", sc.AdminOrderController.GetOrder)
		orders.PUT("/:id/status", sc.AdminOrderController.UpdateOrderStatus)
		orders.PUT("/:id/items/:itemId/return", sc.AdminOrderController.ProcessReturn)
	}
	admin.GET("/returns", sc.AdminOrderController.ListReturnRequests)

	coupons := admin.Group("/coupons")
	{
		coupons.GET("", sc.CouponController.AdminListCoupons)
		coupons.POST("", sc.CouponController.CreateCoupon)
		coupons.PUT("/:id", sc.CouponController.UpdateCoupon)
		coupons.DELETE("/:id", sc.CouponController.DeleteCoupon)
		coupons.PATCH("/:id/toggle", sc.CouponController.ToggleCoupon)
	}

	offers := sc.AdminOfferController
	productOffers := admin.Group("/offers/products")
	{
		productOffers.GET("", offers.ListProductOffers)
		productOffers.POST("", offers.CreateProductOffer)
		productOffers.PUT("/:id", offers.UpdateProductOffer)
		productOffers.DELETE("/:id", offers.DeleteProductOffer)
		productOffers.PATCH("/:id/toggle", offers.ToggleProductOffer)
	}
	categoryOffers := admin.Group("/offers/categories")
	{
		categoryOffers.GET("", offers.ListCategoryOffers)
		categoryOffers.POST("", offers.CreateCategoryOffer)
		categoryOffers.PUT("/:id", offers.UpdateCategoryOffer)
		categoryOffers.DELETE("/:id", offers.DeleteCategoryOffer)
		categoryOffers.PATCH("/:id/toggle", offers.ToggleCategoryOffer)
	}
	referralOffers := admin.Group("/offers/referrals")
	{
		referralOffers.GET("", offers.ListReferralOffers)
		referralOffers.POST("", offers.CreateReferralOffer)
		referralOffers.PUT("/:id", offers.UpdateReferralOffer)
		referralOffers.DELETE("/:id", offers.DeleteReferralOffer)
		referralOffers.PATCH("/:id/toggle", offers.ToggleReferralOffer)
	}

	reports := admin.Group("/reports")
	{
		reports.GET("/dashboard", sc.AdminReportController.Dashboard)
		reports.GET("/sales", sc.AdminReportController.SalesReport)
	}
}
