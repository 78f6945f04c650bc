package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

type CartController struct {
	cartService services.CartService
}

func InitCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// GetCart returns the cart with every line evaluated for availability
func (cc *CartController) GetCart(c *gin.Context) {
	utils.LogInfo("GetCart called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	cart, err := cc.cartService.GetCart(ctx, user.ID)
	if err != nil {
		fail(c, "GetCart", err)
		return
	}
	utils.LogDebug("Cart %d has %d lines, unavailable: %v", cart.ID, len(cart.Items), cart.HasUnavailableItems)
	utils.Success(c, "Cart retrieved successfully", cart)
}

func (cc *CartController) AddToCart(c *gin.Context) {
	utils.LogInfo("AddToCart called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	cart, err := cc.cartService.AddToCart(ctx, user.ID, req)
	if err != nil {
		fail(c, "AddToCart", err)
		return
	}
	utils.LogInfo("Product %d size %s x%d added to cart of user %d", req.ProductID, req.Size, req.Quantity, user.ID)
	utils.Success(c, "Product added to cart", cart)
}

func (cc *CartController) UpdateCartItem(c *gin.Context) {
	utils.LogInfo("UpdateCartItem called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	var req services.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	cart, err := cc.cartService.UpdateCartItemQuantity(ctx, user.ID, itemID, req.Quantity)
	if err != nil {
		fail(c, "UpdateCartItem", err)
		return
	}
	utils.Success(c, "Cart updated", cart)
}

func (cc *CartController) RemoveFromCart(c *gin.Context) {
	utils.LogInfo("RemoveFromCart called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	cart, err := cc.cartService.RemoveFromCart(ctx, user.ID, itemID)
	if err != nil {
		fail(c, "RemoveFromCart", err)
		return
	}
	utils.Success(c, "Item removed from cart", cart)
}
