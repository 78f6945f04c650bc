package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

type CouponController struct {
	couponService services.CouponService
}

func InitCouponController(couponService services.CouponService) *CouponController {
	return &CouponController{couponService: couponService}
}

// ListAvailableCoupons lists coupons usable now, optionally for an amount
func (cc *CouponController) ListAvailableCoupons(c *gin.Context) {
	utils.LogInfo("ListAvailableCoupons called")
	amount := decimal.Zero
	if raw := c.Query("amount"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			utils.BadRequest(c, "Invalid amount", nil)
			return
		}
		amount = parsed
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	coupons, err := cc.couponService.AvailableCoupons(ctx, amount)
	if err != nil {
		fail(c, "ListAvailableCoupons", err)
		return
	}
	utils.Success(c, "Coupons retrieved successfully", gin.H{"coupons": coupons})
}

func (cc *CouponController) ValidateCoupon(c *gin.Context) {
	utils.LogInfo("ValidateCoupon called")
	var req services.ValidateCouponRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	preview, err := cc.couponService.ValidateCoupon(ctx, req.Code, req.Amount)
	if err != nil {
		fail(c, "ValidateCoupon", err)
		return
	}
	utils.Success(c, "Coupon is valid", preview)
}

func (cc *CouponController) AdminListCoupons(c *gin.Context) {
	utils.LogInfo("AdminListCoupons called")
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pagination := utils.NewPagination(c)
	coupons, err := cc.couponService.ListCoupons(ctx, pagination)
	if err != nil {
		fail(c, "AdminListCoupons", err)
		return
	}
	utils.SendPaginatedResponse(c, "Coupons retrieved successfully", coupons, pagination)
}

func (cc *CouponController) CreateCoupon(c *gin.Context) {
	utils.LogInfo("CreateCoupon called")
	var input services.CouponInput
	if !bindJSON(c, &input) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	coupon, err := cc.couponService.CreateCoupon(ctx, input)
	if err != nil {
		fail(c, "CreateCoupon", err)
		return
	}
	utils.LogInfo("Coupon %s created", coupon.Code)
	utils.Created(c, "Coupon created successfully", coupon)
}

func (cc *CouponController) UpdateCoupon(c *gin.Context) {
	utils.LogInfo("UpdateCoupon called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.CouponInput
	if !bindJSON(c, &input) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	coupon, err := cc.couponService.UpdateCoupon(ctx, id, input)
	if err != nil {
		fail(c, "UpdateCoupon", err)
		return
	}
	utils.Success(c, "Coupon updated successfully", coupon)
}

func (cc *CouponController) ToggleCoupon(c *gin.Context) {
	utils.LogInfo("ToggleCoupon called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	coupon, err := cc.couponService.ToggleCoupon(ctx, id)
	if err != nil {
		fail(c, "ToggleCoupon", err)
		return
	}
	utils.LogInfo("Coupon %s is now active=%v", coupon.Code, coupon.IsActive)
	utils.Success(c, "Coupon status updated", coupon)
}

func (cc *CouponController) DeleteCoupon(c *gin.Context) {
	utils.LogInfo("DeleteCoupon called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	if err := cc.couponService.DeleteCoupon(ctx, id); err != nil {
		fail(c, "DeleteCoupon", err)
		return
	}
	utils.Success(c, utils.MsgDeleteSuccess, nil)
}
