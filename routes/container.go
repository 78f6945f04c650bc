package routes

import (
	"github.com/redis/go-redis/v9"
	"github.com/zekoya/storefront/config"
	"github.com/zekoya/storefront/controllers"
	"github.com/zekoya/storefront/services"
	"gorm.io/gorm"
)

// ServiceContainer wires services to their controllers
type ServiceContainer struct {
	CartService       services.CartService
	OrderService      services.OrderService
	AdminOrderService services.AdminOrderService
	PaymentService    services.PaymentService
	ReportService     services.ReportService

	CatalogController      *controllers.CatalogController
	CartController         *controllers.CartController
	WishlistController     *controllers.WishlistController
	AddressController      *controllers.AddressController
	WalletController       *controllers.WalletController
	OrderController        *controllers.OrderController
	PaymentController      *controllers.PaymentController
	CouponController       *controllers.CouponController
	AdminCatalogController *controllers.AdminCatalogController
	AdminOrderController   *controllers.AdminOrderController
	AdminOfferController   *controllers.AdminOfferController
	AdminReportController  *controllers.AdminReportController
}

func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	cache := services.NewReportCache(redisClient, cfg.ReportCacheTTL)
	images := services.NewImageStore(cfg)
	invoices := services.NewInvoiceRenderer(cfg.UploadDir)
	gateway := services.NewRazorpayGateway(cfg)

	catalogService := services.NewCatalogService(db)
	reviewService := services.NewReviewService(db)
	cartService := services.NewCartService(db, cfg)
	wishlistService := services.NewWishlistService(db)
	addressService := services.NewAddressService(db)
	walletService := services.NewWalletService(db)
	referralService := services.NewReferralService(db)
	orderService := services.NewOrderService(db, cfg, invoices, cache)
	adminOrderService := services.NewAdminOrderService(db, cache)
	paymentService := services.NewPaymentService(db, gateway, cache)
	couponService := services.NewCouponService(db)
	offerService := services.NewOfferService(db, cache)
	productService := services.NewAdminProductService(db, images)
	categoryService := services.NewAdminCategoryService(db, images)
	reportService := services.NewReportService(db, cache)

	return &ServiceContainer{
		CartService:       cartService,
		OrderService:      orderService,
		AdminOrderService: adminOrderService,
		PaymentService:    paymentService,
		ReportService:     reportService,

		CatalogController:      controllers.InitCatalogController(catalogService, reviewService),
		CartController:         controllers.InitCartController(cartService),
		WishlistController:     controllers.InitWishlistController(wishlistService),
		AddressController:      controllers.InitAddressController(addressService),
		WalletController:       controllers.InitWalletController(walletService, referralService),
		OrderController:        controllers.InitOrderController(orderService),
		PaymentController:      controllers.InitPaymentController(paymentService),
		CouponController:       controllers.InitCouponController(couponService),
		AdminCatalogController: controllers.InitAdminCatalogController(productService, categoryService),
		AdminOrderController:   controllers.InitAdminOrderController(adminOrderService),
		AdminOfferController:   controllers.InitAdminOfferController(offerService),
		AdminReportController:  controllers.InitAdminReportController(reportService),
	}
}
