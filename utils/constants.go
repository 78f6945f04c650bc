package utils

// Application constants
const (
	AppName = "Zekoya"

	// Maximum file size for image uploads (5MB)
	MaxFileSize = 5 * 1024 * 1024

	DefaultPaginationLimit = 10
	MaxPaginationLimit     = 100

	MinRating = 1
	MaxRating = 5

	// Razorpay amounts are in paise
	CurrencyINR = "INR"
)

// Error types returned to the client in "errorType"
const (
	ErrTypeValidation          = "validationError"
	ErrTypeDuplicateItem       = "duplicateItem"
	ErrTypeMaxQuantity         = "maxQuantityExceeded"
	ErrTypeInsufficientStock   = "insufficientStock"
	ErrTypeItemUnavailable     = "itemUnavailable"
	ErrTypeEmptyCart           = "emptyCart"
	ErrTypeInvalidCoupon       = "invalidCoupon"
	ErrTypeInsufficientBalance = "insufficientWalletBalance"
	ErrTypeInvalidSignature    = "invalidSignature"
	ErrTypeInvalidTransition   = "invalidStatusTransition"
	ErrTypeReturnNotAllowed    = "returnNotAllowed"
	ErrTypeCancelNotAllowed    = "cancelNotAllowed"
	ErrTypeOfferOverlap        = "offerOverlap"
	ErrTypeAlreadyExists       = "alreadyExists"
	ErrTypeReferral            = "referralError"
	ErrTypePaymentGateway      = "paymentGatewayError"
)

// Unavailability reasons on cart lines, highest priority first
const (
	ReasonProductMissing      = "productMissing"
	ReasonProductUnlisted     = "productUnlisted"
	ReasonCategoryUnavailable = "categoryUnavailable"
	ReasonSizeUnavailable     = "sizeUnavailable"
	ReasonOutOfStock          = "outOfStock"
)

// Success messages
const (
	MsgCreateSuccess = "Created successfully"
	MsgUpdateSuccess = "Updated successfully"
	MsgDeleteSuccess = "Deleted successfully"
)
