package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
)

// Request types for CartService
type AddToCartRequest struct {
	ProductID uint   `json:"productId" binding:"required"`
	Size      string `json:"size" binding:"required,product_size"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CartService defines the interface for cart operations
type CartService interface {
	GetCart(ctx context.Context, userID uint) (*utils.CartView, error)
	AddToCart(ctx context.Context, userID uint, req AddToCartRequest) (*utils.CartView, error)
	UpdateCartItemQuantity(ctx context.Context, userID, itemID uint, quantity int) (*utils.CartView, error)
	RemoveFromCart(ctx context.Context, userID, itemID uint) (*utils.CartView, error)
}

// Request types for OrderService
type CreateOrderRequest struct {
	AddressID      uint   `json:"addressId" binding:"required"`
	PaymentMethod  string `json:"paymentMethod" binding:"required,payment_method"`
	CouponCode     string `json:"couponCode"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderService defines the buyer-side order operations. Orders are looked up
// by numeric id or by their public OrderID code.
type OrderService interface {
	CreateOrder(ctx context.Context, userID uint, req CreateOrderRequest) (*models.Order, bool, error)
	ListOrders(ctx context.Context, userID uint, status string, p *utils.Pagination) ([]models.Order, error)
	GetOrder(ctx context.Context, userID uint, ref string) (*models.Order, error)
	CancelOrder(ctx context.Context, userID uint, ref, reason string) (*models.Order, error)
	CancelOrderItem(ctx context.Context, userID uint, ref string, itemID uint, reason string) (*models.Order, error)
	RequestReturn(ctx context.Context, userID uint, ref string, itemID uint, reason string) (*models.Order, error)
	Invoice(ctx context.Context, userID uint, ref string) (*models.Order, []byte, error)
}

// Request types for AdminOrderService
type OrderFilter struct {
	Status        string
	PaymentMethod string
	Search        string
	From          *time.Time
	To            *time.Time
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,order_status"`
	Note   string `json:"note" binding:"max=500"`
}

type ReturnDecisionRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
	Note   string `json:"note" binding:"max=500"`
}

// ReturnRequestView is a pending return as the admin queue shows it
type ReturnRequestView struct {
	OrderID           uint            `json:"orderId"`
	OrderCode         string          `json:"orderCode"`
	UserID            uint            `json:"userId"`
	UserEmail         string          `json:"userEmail"`
	ItemID            uint            `json:"itemId"`
	ProductID         uint            `json:"productId"`
	Name              string          `json:"name"`
	Size              string          `json:"size"`
	Quantity          int             `json:"quantity"`
	RefundAmount      decimal.Decimal `json:"refundAmount"`
	ReturnReason      string          `json:"returnReason"`
	ReturnRequestedAt *time.Time      `json:"returnRequestedAt"`
}

// AdminOrderService defines the admin-side order operations
type AdminOrderService interface {
	ListOrders(ctx context.Context, filter OrderFilter, p *utils.Pagination) ([]models.Order, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, adminID, id uint, req UpdateOrderStatusRequest) (*models.Order, error)
	ProcessReturn(ctx context.Context, adminID, id, itemID uint, req ReturnDecisionRequest) (*models.Order, error)
	ListReturnRequests(ctx context.Context, p *utils.Pagination) ([]ReturnRequestView, error)
}

// Request and response types for PaymentService
type VerifyPaymentRequest struct {
	OrderID           uint   `json:"orderId" binding:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

type PaymentOrderRequest struct {
	OrderID uint `json:"orderId" binding:"required"`
}

type RazorpayCheckout struct {
	KeyID           string          `json:"keyId"`
	RazorpayOrderID string          `json:"razorpayOrderId"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	OrderID         uint            `json:"orderId"`
	OrderCode       string          `json:"orderCode"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
}

type PaymentMethodOption struct {
	Method    string `json:"method"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type PaymentMethodsView struct {
	CartTotal     decimal.Decimal       `json:"cartTotal"`
	WalletBalance decimal.Decimal       `json:"walletBalance"`
	Methods       []PaymentMethodOption `json:"methods"`
}

// PaymentService defines the Razorpay checkout flow
type PaymentService interface {
	PaymentMethods(ctx context.Context, userID uint) (*PaymentMethodsView, error)
	CreateRazorpayOrder(ctx context.Context, userID, orderID uint) (*RazorpayCheckout, error)
	VerifyRazorpayPayment(ctx context.Context, userID uint, req VerifyPaymentRequest) (*models.Order, error)
	MarkPaymentFailed(ctx context.Context, userID, orderID uint) (*models.Order, error)
}

// Request and response types for catalog services
type ProductFilter struct {
	CategoryID uint
	Search     string
	Brand      string
	Size       string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
	Listed     *bool
}

type SizeStock struct {
	Size  string `json:"size" binding:"required,product_size"`
	Stock int    `json:"stock" binding:"min=0"`
}

type ProductInput struct {
	Name        string          `json:"name" form:"name"`
	Description string          `json:"description" form:"description"`
	Brand       string          `json:"brand" form:"brand"`
	Price       decimal.Decimal `json:"price" form:"-"`
	CategoryID  uint            `json:"categoryId" form:"categoryId"`
	Sizes       []SizeStock     `json:"sizes" form:"-"`
}

type CategoryInput struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

// ProductView is a product with its offer pricing and rating summary
type ProductView struct {
	models.Product
	Offer         utils.AppliedOffer `json:"offer"`
	AverageRating float64            `json:"averageRating"`
	ReviewCount   int64              `json:"reviewCount"`
}

type ActiveOffersView struct {
	ProductOffers  []models.ProductOffer  `json:"productOffers"`
	CategoryOffers []models.CategoryOffer `json:"categoryOffers"`
	ReferralOffer  *models.ReferralOffer  `json:"referralOffer,omitempty"`
}

// CatalogService is the public, read-only product catalog
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductFilter, p *utils.Pagination) ([]ProductView, error)
	FeaturedProducts(ctx context.Context, limit int) ([]ProductView, error)
	GetProduct(ctx context.Context, id uint) (*ProductView, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	ActiveOffers(ctx context.Context) (*ActiveOffersView, error)
}

// AdminProductService manages products and their images
type AdminProductService interface {
	ListProducts(ctx context.Context, filter ProductFilter, p *utils.Pagination) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	CreateProduct(ctx context.Context, input ProductInput, images []*multipart.FileHeader) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uint, input ProductInput, images []*multipart.FileHeader) (*models.Product, error)
	ToggleListed(ctx context.Context, id uint) (*models.Product, error)
	ToggleFeatured(ctx context.Context, id uint) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

// AdminCategoryService manages categories
type AdminCategoryService interface {
	ListCategories(ctx context.Context, p *utils.Pagination) ([]models.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput, image *multipart.FileHeader) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uint, input CategoryInput, image *multipart.FileHeader) (*models.Category, error)
	ToggleListed(ctx context.Context, id uint) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
}

// Request and response types for coupons
type CouponInput struct {
	Code          string          `json:"code" binding:"required,min=3,max=30"`
	Description   string          `json:"description" binding:"max=255"`
	DiscountType  string          `json:"discountType" binding:"required,discount_type"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MaxDiscount   decimal.Decimal `json:"maxDiscount"`
	MinPurchase   decimal.Decimal `json:"minPurchase"`
	StartDate     time.Time       `json:"startDate" binding:"required"`
	EndDate       time.Time       `json:"endDate" binding:"required,gtfield=StartDate"`
	UsageLimit    int             `json:"usageLimit" binding:"min=0"`
	IsActive      *bool           `json:"isActive"`
}

type ValidateCouponRequest struct {
	Code   string          `json:"code" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type CouponPreview struct {
	Code          string          `json:"code"`
	Amount        decimal.Decimal `json:"amount"`
	Discount      decimal.Decimal `json:"discount"`
	PayableAmount decimal.Decimal `json:"payableAmount"`
}

// CouponService covers buyer coupon lookups and admin coupon management
type CouponService interface {
	AvailableCoupons(ctx context.Context, amount decimal.Decimal) ([]models.Coupon, error)
	ValidateCoupon(ctx context.Context, code string, amount decimal.Decimal) (*CouponPreview, error)

	ListCoupons(ctx context.Context, p *utils.Pagination) ([]models.Coupon, error)
	CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id uint, input CouponInput) (*models.Coupon, error)
	ToggleCoupon(ctx context.Context, id uint) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, id uint) error
}

// Request types for offers
type OfferWindowInput struct {
	Name          string          `json:"name" binding:"required,max=100"`
	DiscountType  string          `json:"discountType" binding:"required,discount_type"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	StartDate     time.Time       `json:"startDate" binding:"required"`
	EndDate       time.Time       `json:"endDate" binding:"required,gtfield=StartDate"`
	IsActive      *bool           `json:"isActive"`
}

type ProductOfferInput struct {
	ProductID uint `json:"productId" binding:"required"`
	OfferWindowInput
}

type CategoryOfferInput struct {
	CategoryID uint `json:"categoryId" binding:"required"`
	OfferWindowInput
}

type ReferralOfferInput struct {
	Name           string          `json:"name" binding:"required,max=100"`
	ReferrerReward decimal.Decimal `json:"referrerReward"`
	RefereeReward  decimal.Decimal `json:"refereeReward"`
	StartDate      time.Time       `json:"startDate" binding:"required"`
	EndDate        time.Time       `json:"endDate" binding:"required,gtfield=StartDate"`
	IsActive       *bool           `json:"isActive"`
}

// OfferService manages product, category and referral offers
type OfferService interface {
	ListProductOffers(ctx context.Context, p *utils.Pagination) ([]models.ProductOffer, error)
	CreateProductOffer(ctx context.Context, input ProductOfferInput) (*models.ProductOffer, error)
	UpdateProductOffer(ctx context.Context, id uint, input ProductOfferInput) (*models.ProductOffer, error)
	ToggleProductOffer(ctx context.Context, id uint) (*models.ProductOffer, error)
	DeleteProductOffer(ctx context.Context, id uint) error

	ListCategoryOffers(ctx context.Context, p *utils.Pagination) ([]models.CategoryOffer, error)
	CreateCategoryOffer(ctx context.Context, input CategoryOfferInput) (*models.CategoryOffer, error)
	UpdateCategoryOffer(ctx context.Context, id uint, input CategoryOfferInput) (*models.CategoryOffer, error)
	ToggleCategoryOffer(ctx context.Context, id uint) (*models.CategoryOffer, error)
	DeleteCategoryOffer(ctx context.Context, id uint) error

	ListReferralOffers(ctx context.Context, p *utils.Pagination) ([]models.ReferralOffer, error)
	CreateReferralOffer(ctx context.Context, input ReferralOfferInput) (*models.ReferralOffer, error)
	UpdateReferralOffer(ctx context.Context, id uint, input ReferralOfferInput) (*models.ReferralOffer, error)
	ToggleReferralOffer(ctx context.Context, id uint) (*models.ReferralOffer, error)
	DeleteReferralOffer(ctx context.Context, id uint) error
}

type ApplyReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

type ReferralView struct {
	ReferralCode  string                `json:"referralCode"`
	ReferralCount int                   `json:"referralCount"`
	ReferredBy    *uint                 `json:"referredBy,omitempty"`
	ActiveOffer   *models.ReferralOffer `json:"activeOffer,omitempty"`
}

// ReferralService hands out referral codes and pays referral rewards
type ReferralService interface {
	GetReferral(ctx context.Context, userID uint) (*ReferralView, error)
	ApplyReferralCode(ctx context.Context, userID uint, code string) (*ReferralView, error)
}

type WalletView struct {
	Balance      decimal.Decimal            `json:"balance"`
	Transactions []models.WalletTransaction `json:"transactions"`
	Pagination   *utils.Pagination          `json:"pagination"`
}

// WalletService reads the wallet ledger
type WalletService interface {
	GetWallet(ctx context.Context, userID uint, p *utils.Pagination) (*WalletView, error)
}

// AddressService manages a user's address book. At most one address is the
// default at any time.
type AddressService interface {
	ListAddresses(ctx context.Context, userID uint) ([]models.Address, error)
	AddAddress(ctx context.Context, userID uint, input utils.AddressInput) (*models.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID uint, input utils.AddressInput) (*models.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uint) error
	SetDefaultAddress(ctx context.Context, userID, addressID uint) (*models.Address, error)
}

type AddToWishlistRequest struct {
	ProductID uint `json:"productId" binding:"required"`
}

// WishlistService manages saved products
type WishlistService interface {
	ListWishlist(ctx context.Context, userID uint) ([]ProductView, error)
	AddToWishlist(ctx context.Context, userID, productID uint) error
	RemoveFromWishlist(ctx context.Context, userID, productID uint) error
}

type ReviewInput struct {
	Rating      int    `json:"rating" binding:"required,min=1,max=5"`
	Title       string `json:"title" binding:"max=100"`
	Description string `json:"description" binding:"max=2000"`
}

type ReviewList struct {
	Reviews       []models.Review   `json:"reviews"`
	AverageRating float64           `json:"averageRating"`
	ReviewCount   int64             `json:"reviewCount"`
	Pagination    *utils.Pagination `json:"pagination"`
}

// ReviewService manages product reviews
type ReviewService interface {
	AddReview(ctx context.Context, userID, productID uint, input ReviewInput) (*models.Review, error)
	ListReviews(ctx context.Context, productID uint, p *utils.Pagination) (*ReviewList, error)
}

// ReportService builds the admin dashboard and sales reports
type ReportService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	SalesReport(ctx context.Context, filter SalesReportFilter) (*SalesReport, error)
}
