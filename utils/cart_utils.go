package utils

import (
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
)

// CartItemView is a cart line annotated with its availability at read time.
// It is computed on every read and never stored.
type CartItemView struct {
	ID                uint            `json:"id"`
	ProductID         uint            `json:"productId"`
	Name              string          `json:"name"`
	Image             string          `json:"image"`
	Brand             string          `json:"brand"`
	Size              string          `json:"size"`
	Quantity          int             `json:"quantity"`
	RequestedQuantity int             `json:"requestedQuantity"`
	AvailableStock    int             `json:"availableStock"`
	Price             decimal.Decimal `json:"price"`
	OriginalPrice     decimal.Decimal `json:"originalPrice"`
	OfferDiscount     decimal.Decimal `json:"offerDiscount"`
	LineTotal         decimal.Decimal `json:"lineTotal"`
	IsAvailable       bool            `json:"isAvailable"`
	UnavailableReason string          `json:"unavailableReason,omitempty"`
	StockReduced      bool            `json:"stockReduced"`
}

// CartView is the cart as returned to the client
type CartView struct {
	ID                  uint            `json:"id"`
	Items               []CartItemView  `json:"items"`
	HasUnavailableItems bool            `json:"hasUnavailableItems"`
	ItemCount           int             `json:"itemCount"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	OfferDiscount       decimal.Decimal `json:"offerDiscount"`
	Total               decimal.Decimal `json:"total"`
}

// EvaluateCartItem annotates one cart line. product is nil when the product
// no longer exists; product.Category must be loaded. The first failing check
// in this order wins: product missing, product unlisted, category missing or
// unlisted, size missing, out of stock. A line with less stock than requested
// stays available with its quantity clamped and StockReduced set.
func EvaluateCartItem(item models.CartItem, product *models.Product, offer AppliedOffer) CartItemView {
	view := CartItemView{
		ID:                item.ID,
		ProductID:         item.ProductID,
		Size:              item.Size,
		Quantity:          item.Quantity,
		RequestedQuantity: item.Quantity,
		Price:             decimal.Zero,
		OriginalPrice:     decimal.Zero,
		OfferDiscount:     decimal.Zero,
		LineTotal:         decimal.Zero,
	}

	if product == nil {
		view.UnavailableReason = ReasonProductMissing
		return view
	}

	view.Name = product.Name
	view.Image = product.MainImage()
	view.Brand = product.Brand
	view.OriginalPrice = offer.OriginalPrice
	view.Price = offer.FinalPrice
	view.OfferDiscount = offer.Discount

	switch {
	case !product.IsListed:
		view.UnavailableReason = ReasonProductUnlisted
		return view
	case product.Category == nil || !product.Category.IsListed || product.Category.DeletedAt.Valid:
		view.UnavailableReason = ReasonCategoryUnavailable
		return view
	}

	size, ok := product.FindSize(item.Size)
	if !ok {
		view.UnavailableReason = ReasonSizeUnavailable
		return view
	}
	view.AvailableStock = size.Stock

	if size.Stock <= 0 {
		view.UnavailableReason = ReasonOutOfStock
		return view
	}

	view.IsAvailable = true
	if size.Stock < item.Quantity {
		view.Quantity = size.Stock
		view.StockReduced = true
	}
	view.LineTotal = view.Price.Mul(decimal.NewFromInt(int64(view.Quantity)))
	return view
}

// BuildCartView totals the available lines
func BuildCartView(cartID uint, items []CartItemView) CartView {
	view := CartView{
		ID:            cartID,
		Items:         items,
		Subtotal:      decimal.Zero,
		OfferDiscount: decimal.Zero,
		Total:         decimal.Zero,
	}
	if view.Items == nil {
		view.Items = []CartItemView{}
	}
	for _, item := range items {
		if !item.IsAvailable {
			view.HasUnavailableItems = true
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		view.ItemCount += item.Quantity
		view.Subtotal = view.Subtotal.Add(item.OriginalPrice.Mul(qty))
		view.OfferDiscount = view.OfferDiscount.Add(item.OfferDiscount.Mul(qty))
		view.Total = view.Total.Add(item.LineTotal)
	}
	return view
}
