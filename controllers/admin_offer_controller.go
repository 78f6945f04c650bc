package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

type AdminOfferController struct {
	offerService services.OfferService
}

func InitAdminOfferController(offerService services.OfferService) *AdminOfferController {
	return &AdminOfferController{offerService: offerService}
}

// ---- Product offers ----

func (oc *AdminOfferController) ListProductOffers(c *gin.Context) {
	utils.LogInfo("ListProductOffers called")
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pagination := utils.NewPagination(c)
	offers, err := oc.offerService.ListProductOffers(ctx, pagination)
	if err != nil {
		fail(c, "ListProductOffers", err)
		return
	}
	utils.SendPaginatedResponse(c, "Product offers retrieved successfully", offers, pagination)
}

func (oc *AdminOfferController) CreateProductOffer(c *gin.Context) {
	utils.LogInfo("CreateProductOffer called")
	var req services.ProductOfferInput
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	offer, err := oc.offerService.CreateProductOffer(ctx, req)
	if err != nil {
		fail(c, "CreateProductOffer", err)
		return
	}
	utils.LogInfo("Product offer %d created for product %d", offer.ID, offer.ProductID)
	utils.Created(c, "Product offer created successfully", offer)
}

func (oc *AdminOfferController) UpdateProductOffer(c *gin.Context) {
	utils.LogInfo("UpdateProductOffer called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.ProductOfferInput
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	offer, err := oc.offerService.UpdateProductOffer(ctx, id, req)
	if err != nil {
		fail(c, "UpdateProductOffer", err)
		return
	}
	utils.Success(c, "Product offer updated successfully", offer)
}

func (oc *AdminOfferController) ToggleProductOffer(c *gin.Context) {
	utils.LogInfo("ToggleProductOffer called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	offer, err := oc.offerService.ToggleProductOffer(ctx, id)
	if err != nil {
		fail(c, "ToggleProductOffer", err)
		return
	}
	utils.LogInfo("Product offer %d active=%v", offer.ID, offer.IsActive)
	utils.Success(c, "Product offer status updated", offer)
}

func (oc *AdminOfferController) DeleteProductOffer(c *gin.Context) {
	utils.LogInfo("DeleteProductOffer called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	if err := oc.offerService.DeleteProductOffer(ctx, id); err != nil {
		fail(c, "DeleteProductOffer", err)
		return
	}
	utils.Success(c, utils.MsgDeleteSuccess, nil)
}

// ---- Category offers ----

func (oc *AdminOfferController) ListCategoryOffers(c *gin.Context) {
	utils.LogInfo("ListCategoryOffers called")
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pagination := utils.NewPagination(c)
	offers, err := oc.offerService.ListCategoryOffers(ctx, pagination)
	if err != nil {
		fail(c, "ListCategoryOffers", err)
		return
	}
	utils.SendPaginatedResponse(c, "Category offers retrieved successfully", offers, pagination)
}

func (oc *AdminOfferController) CreateCategoryOffer(c *gin.Context) {
	utils.LogInfo("CreateCategoryOffer called")
	var req services.CategoryOfferInput
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	offer, err := oc.offerService.CreateCategoryOffer(ctx, req)
	if err != nil {
		fail(c, "CreateCategoryOffer", err)
		return
	}
	utils.LogInfo("Category offer %d created for category %d", offer.ID, offer.CategoryID)
	utils.Created(c, "Category offer created successfully", offer)
}

func (oc *AdminOfferController) UpdateCategoryOffer(c *gin.Context) {
	utils.LogInfo("UpdateCategoryOffer called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.CategoryOfferInput
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	offer, err := oc.offerService.UpdateCategoryOffer(ctx, id, req)
	if err != nil {
		fail(c, "UpdateCategoryOffer", err)
		return
	}
	utils.Success(c, "Category offer updated successfully", offer)
}

func (oc *AdminOfferController) ToggleCategoryOffer(c *gin.Context) {
	utils.LogInfo("ToggleCategoryOffer called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	offer, err := oc.offerService.ToggleCategoryOffer(ctx, id)
	if err != nil {
		fail(c, "ToggleCategoryOffer", err)
		return
	}
	utils.LogInfo("Category offer %d active=%v", offer.ID, offer.IsActive)
	utils.Success(c, "Category offer status updated", offer)
}

func (oc *AdminOfferController) DeleteCategoryOffer(c *gin.Context) {
	utils.LogInfo("DeleteCategoryOffer called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	if err := oc.offerService.DeleteCategoryOffer(ctx, id); err != nil {
		fail(c, "DeleteCategoryOffer", err)
		return
	}
	utils.Success(c, utils.MsgDeleteSuccess, nil)
}

// ---- Referral offers ----

func (oc *AdminOfferController) ListReferralOffers(c *gin.Context) {
	utils.LogInfo("ListReferralOffers called")
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pagination := utils.NewPagination(c)
	offers, err := oc.offerService.ListReferralOffers(ctx, pagination)
	if err != nil {
		fail(c, "ListReferralOffers", err)
		return
	}
	utils.SendPaginatedResponse(c, "Referral offers retrieved successfully", offers, pagination)
}

func (oc *AdminOfferController) CreateReferralOffer(c *gin.Context) {
	utils.LogInfo("CreateReferralOffer called")
	var req services.ReferralOfferInput
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	offer, err := oc.offerService.CreateReferralOffer(ctx, req)
	if err != nil {
		fail(c, "CreateReferralOffer", err)
		return
	}
	utils.LogInfo("Referral offer %d created", offer.ID)
	utils.Created(c, "Referral offer created successfully", offer)
}

func (oc *AdminOfferController) UpdateReferralOffer(c *gin.Context) {
	utils.LogInfo("UpdateReferralOffer called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.ReferralOfferInput
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	offer, err := oc.offerService.UpdateReferralOffer(ctx, id, req)
	if err != nil {
		fail(c, "UpdateReferralOffer", err)
		return
	}
	utils.Success(c, "Referral offer updated successfully", offer)
}

func (oc *AdminOfferController) ToggleReferralOffer(c *gin.Context) {
	utils.LogInfo("ToggleReferralOffer called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	offer, err := oc.offerService.ToggleReferralOffer(ctx, id)
	if err != nil {
		fail(c, "ToggleReferralOffer", err)
		return
	}
	utils.Success(c, "Referral offer status updated", offer)
}

func (oc *AdminOfferController) DeleteReferralOffer(c *gin.Context) {
	utils.LogInfo("DeleteReferralOffer called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	if err := oc.offerService.DeleteReferralOffer(ctx, id); err != nil {
		fail(c, "DeleteReferralOffer", err)
		return
	}
	utils.Success(c, utils.MsgDeleteSuccess, nil)
}
