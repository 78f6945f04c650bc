package controllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

const defaultFeaturedLimit = 8

type CatalogController struct {
	catalogService services.CatalogService
	reviewService  services.ReviewService
}

func InitCatalogController(catalogService services.CatalogService, reviewService services.ReviewService) *CatalogController {
	return &CatalogController{catalogService: catalogService, reviewService: reviewService}
}

// productFilter reads the catalog query string, answering 400 on bad values
func productFilter(c *gin.Context) (services.ProductFilter, bool) {
	filter := services.ProductFilter{
		Search: c.Query("search"),
		Brand:  c.Query("brand"),
		Size:   strings.ToUpper(c.Query("size")),
		Sort:   c.DefaultQuery("sort", services.SortNewest),
	}
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.BadRequest(c, "Invalid category", nil)
			return filter, false
		}
		filter.CategoryID = uint(id)
	}
	if filter.Size != "" && !models.IsValidSize(filter.Size) {
		utils.BadRequest(c, "Invalid size", nil)
		return filter, false
	}
	for key, dest := range map[string]**decimal.Decimal{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			utils.BadRequest(c, "Invalid "+key, nil)
			return filter, false
		}
		*dest = &price
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		utils.BadRequest(c, "min_price cannot be greater than max_price", nil)
		return filter, false
	}
	return filter, true
}

func (cc *CatalogController) ListProducts(c *gin.Context) {
	utils.LogInfo("ListProducts called")
	filter, ok := productFilter(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pagination := utils.NewPagination(c)
	products, err := cc.catalogService.ListProducts(ctx, filter, pagination)
	if err != nil {
		fail(c, "ListProducts", err)
		return
	}
	utils.LogDebug("Returning %d of %d products", len(products), pagination.Total)
	utils.SendPaginatedResponse(c, "Products retrieved successfully", products, pagination)
}

func (cc *CatalogController) FeaturedProducts(c *gin.Context) {
	utils.LogInfo("FeaturedProducts called")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultFeaturedLimit)))
	if err != nil || limit < 1 || limit > utils.MaxPaginationLimit {
		limit = defaultFeaturedLimit
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	products, err := cc.catalogService.FeaturedProducts(ctx, limit)
	if err != nil {
		fail(c, "FeaturedProducts", err)
		return
	}
	utils.Success(c, "Featured products retrieved successfully", gin.H{"products": products})
}

func (cc *CatalogController) GetProduct(c *gin.Context) {
	utils.LogInfo("GetProduct called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	product, err := cc.catalogService.GetProduct(ctx, id)
	if err != nil {
		fail(c, "GetProduct", err)
		return
	}
	utils.Success(c, "Product retrieved successfully", product)
}

func (cc *CatalogController) ListCategories(c *gin.Context) {
	utils.LogInfo("ListCategories called")
	ctx, cancel := WithTimeout(c)
	defer cancel()

	categories, err := cc.catalogService.ListCategories(ctx)
	if err != nil {
		fail(c, "ListCategories", err)
		return
	}
	utils.Success(c, "Categories retrieved successfully", gin.H{"categories": categories})
}

func (cc *CatalogController) GetCategory(c *gin.Context) {
	utils.LogInfo("GetCategory called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	category, err := cc.catalogService.GetCategory(ctx, id)
	if err != nil {
		fail(c, "GetCategory", err)
		return
	}
	utils.Success(c, "Category retrieved successfully", category)
}

// ActiveOffers lists the offers running right now
func (cc *CatalogController) ActiveOffers(c *gin.Context) {
	utils.LogInfo("ActiveOffers called")
	ctx, cancel := WithTimeout(c)
	defer cancel()

	offers, err := cc.catalogService.ActiveOffers(ctx)
	if err != nil {
		fail(c, "ActiveOffers", err)
		return
	}
	utils.Success(c, "Active offers retrieved successfully", offers)
}

func (cc *CatalogController) ListReviews(c *gin.Context) {
	utils.LogInfo("ListReviews called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	reviews, err := cc.reviewService.ListReviews(ctx, id, utils.NewPagination(c))
	if err != nil {
		fail(c, "ListReviews", err)
		return
	}
	utils.Success(c, "Reviews retrieved successfully", reviews)
}

func (cc *CatalogController) AddReview(c *gin.Context) {
	utils.LogInfo("AddReview called")
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.ReviewInput
	if !bindJSON(c, &input) {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	review, err := cc.reviewService.AddReview(ctx, user.ID, id, input)
	if err != nil {
		fail(c, "AddReview", err)
		return
	}
	utils.Created(c, "Review added successfully", review)
}
