package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

type WishlistController struct {
	wishlistService services.WishlistService
}

func InitWishlistController(wishlistService services.WishlistService) *WishlistController {
	return &WishlistController{wishlistService: wishlistService}
}

func (wc *WishlistController) GetWishlist(c *gin.Context) {
	utils.LogInfo("GetWishlist called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	products, err := wc.wishlistService.ListWishlist(ctx, user.ID)
	if err != nil {
		fail(c, "GetWishlist", err)
		return
	}
	utils.Success(c, "Wishlist retrieved successfully", gin.H{"products": products, "count": len(products)})
}

func (wc *WishlistController) AddToWishlist(c *gin.Context) {
	utils.LogInfo("AddToWishlist called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.AddToWishlistRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	if err := wc.wishlistService.AddToWishlist(ctx, user.ID, req.ProductID); err != nil {
		fail(c, "AddToWishlist", err)
		return
	}
	utils.Success(c, "Product added to wishlist", gin.H{"productId": req.ProductID})
}

func (wc *WishlistController) RemoveFromWishlist(c *gin.Context) {
	utils.LogInfo("RemoveFromWishlist called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	if err := wc.wishlistService.RemoveFromWishlist(ctx, user.ID, productID); err != nil {
		fail(c, "RemoveFromWishlist", err)
		return
	}
	utils.Success(c, "Product removed from wishlist", nil)
}
