package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status constants
const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// Payment methods
const (
	PaymentMethodCOD      = "COD"
	PaymentMethodRazorpay = "Razorpay"
	PaymentMethodWallet   = "Wallet"
)

// Payment status constants
const (
	PaymentStatusPending  = "Pending"
	PaymentStatusPaid     = "Paid"
	PaymentStatusFailed   = "Failed"
	PaymentStatusRefunded = "Refunded"
)

// Order item status constants
const (
	ItemStatusActive    = "Active"
	ItemStatusCancelled = "Cancelled"
	ItemStatusReturned  = "Returned"
)

// Return status constants
const (
	ReturnStatusNotApplicable = "Not Applicable"
	ReturnStatusRequested     = "Requested"
	ReturnStatusAccepted      = "Accepted"
	ReturnStatusRejected      = "Rejected"
)

// OrderStatusFlow is the forward order of the non-cancelled statuses
var OrderStatusFlow = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

type Order struct {
	ID                uint                 `gorm:"primaryKey" json:"id"`
	OrderID           string               `gorm:"uniqueIndex;not null" json:"orderId"`
	UserID            uint                 `gorm:"index;not null;uniqueIndex:idx_orders_user_idempotency" json:"userId"`
	User              *User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	IdempotencyKey    *string              `gorm:"uniqueIndex:idx_orders_user_idempotency" json:"-"`
	OrderItems        []OrderItem          `json:"orderItems" gorm:"foreignKey:OrderID"`
	ShippingAddress   ShippingAddress      `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	PaymentMethod     string               `gorm:"not null;index" json:"paymentMethod"`
	PaymentStatus     string               `gorm:"not null;default:Pending" json:"paymentStatus"`
	IsPaid            bool                 `gorm:"default:false" json:"isPaid"`
	PaidAt            *time.Time           `json:"paidAt,omitempty"`
	RazorpayOrderID   string               `gorm:"index" json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string               `json:"razorpayPaymentId,omitempty"`
	ItemsPrice        decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"itemsPrice"`
	TaxPrice          decimal.Decimal      `gorm:"type:numeric(12,2);not null;default:0" json:"taxPrice"`
	ShippingPrice     decimal.Decimal      `gorm:"type:numeric(12,2);not null;default:0" json:"shippingPrice"`
	DiscountPrice     decimal.Decimal      `gorm:"type:numeric(12,2);not null;default:0" json:"discountPrice"`
	CouponCode        string               `json:"couponCode,omitempty"`
	CouponDiscount    decimal.Decimal      `gorm:"type:numeric(12,2);not null;default:0" json:"couponDiscount"`
	TotalPrice        decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"totalPrice"`
	RefundedAmount    decimal.Decimal      `gorm:"type:numeric(12,2);not null;default:0" json:"refundedAmount"`
	OrderStatus       string               `gorm:"not null;default:Pending;index" json:"orderStatus"`
	HasReturnRequest  bool                 `gorm:"default:false;index" json:"hasReturnRequest"`
	DeliveredAt       *time.Time           `json:"deliveredAt,omitempty"`
	CancelledAt       *time.Time           `json:"cancelledAt,omitempty"`
	CancelReason      string               `json:"cancelReason,omitempty"`
	StatusHistory     []OrderStatusHistory `json:"statusHistory" gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time            `gorm:"index" json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

type OrderItem struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	OrderID           uint            `gorm:"index;not null" json:"orderId"`
	ProductID         uint            `gorm:"index;not null" json:"productId"`
	Name              string          `json:"name"`
	Image             string          `json:"image"`
	Brand             string          `json:"brand"`
	CategoryID        uint            `json:"categoryId"`
	Size              string          `gorm:"not null" json:"size"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	Price             decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	OriginalPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"originalPrice"`
	OfferDiscount     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"offerDiscount"`
	Status            string          `gorm:"not null;default:Active" json:"status"`
	ReturnStatus      string          `gorm:"not null;default:'Not Applicable'" json:"returnStatus"`
	ReturnReason      string          `json:"returnReason,omitempty"`
	ReturnRequestedAt *time.Time      `json:"returnRequestedAt,omitempty"`
	RefundAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"refundAmount"`
	CancelReason      string          `json:"cancelReason,omitempty"`
	// Set when the item was cancelled by cancelling the whole order, so a
	// reopened order knows which items to restore.
	CancelledWithOrder bool `gorm:"default:false" json:"-"`
}

// LineTotal is price times quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderStatusHistory is append-only
type OrderStatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"index;not null" json:"-"`
	Status    string    `gorm:"not null" json:"status"`
	Note      string    `json:"note,omitempty"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActiveItems returns the items that are neither cancelled nor returned
func (o *Order) ActiveItems() []OrderItem {
	var items []OrderItem
	for _, item := range o.OrderItems {
		if item.Status == ItemStatusActive {
			items = append(items, item)
		}
	}
	return items
}

// IsPrepaid reports whether money was collected up front
func (o *Order) IsPrepaid() bool {
	return o.IsPaid && o.PaymentMethod != PaymentMethodCOD
}
