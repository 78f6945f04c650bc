package controllers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

// maxFormMemory is the in-memory part of a multipart upload; the rest spills to disk
const maxFormMemory = 32 << 20

type AdminCatalogController struct {
	productService  services.AdminProductService
	categoryService services.AdminCategoryService
}

func InitAdminCatalogController(productService services.AdminProductService, categoryService services.AdminCategoryService) *AdminCatalogController {
	return &AdminCatalogController{productService: productService, categoryService: categoryService}
}

// productForm reads a multipart product form. Price is a decimal string and
// sizes a JSON array of {"size","stock"}.
func productForm(c *gin.Context) (services.ProductInput, []*multipart.FileHeader, bool) {
	var input services.ProductInput
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && err != http.ErrNotMultipart {
		utils.LogError("Failed to parse product form: %v", err)
		utils.BadRequest(c, "Failed to get form data", nil)
		return input, nil, false
	}
	if err := c.ShouldBind(&input); err != nil {
		utils.RespondWithError(c, err)
		return input, nil, false
	}

	price, err := decimal.NewFromString(c.PostForm("price"))
	if err != nil {
		utils.LogError("Invalid product price %q", c.PostForm("price"))
		utils.BadRequest(c, "Price must be a number", nil)
		return input, nil, false
	}
	input.Price = price

	if raw := c.PostForm("sizes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Sizes); err != nil {
			utils.LogError("Invalid sizes payload: %v", err)
			utils.BadRequest(c, "Sizes must be a JSON list of {size, stock}", nil)
			return input, nil, false
		}
	}

	var files []*multipart.FileHeader
	if c.Request.MultipartForm != nil {
		files = c.Request.MultipartForm.File["images"]
	}
	utils.LogDebug("Product form: name=%q sizes=%d images=%d", input.Name, len(input.Sizes), len(files))
	return input, files, true
}

func (ac *AdminCatalogController) ListProducts(c *gin.Context) {
	utils.LogInfo("AdminListProducts called")
	filter, ok := productFilter(c)
	if !ok {
		return
	}
	if raw := c.Query("listed"); raw != "" {
		listed, err := strconv.ParseBool(raw)
		if err != nil {
			utils.BadRequest(c, "listed must be true or false", nil)
			return
		}
		filter.Listed = &listed
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pagination := utils.NewPagination(c)
	products, err := ac.productService.ListProducts(ctx, filter, pagination)
	if err != nil {
		fail(c, "AdminListProducts", err)
		return
	}
	utils.SendPaginatedResponse(c, "Products retrieved successfully", products, pagination)
}

func (ac *AdminCatalogController) GetProduct(c *gin.Context) {
	utils.LogInfo("AdminGetProduct called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	product, err := ac.productService.GetProduct(ctx, id)
	if err != nil {
		fail(c, "AdminGetProduct", err)
		return
	}
	utils.Success(c, "Product retrieved successfully", product)
}

func (ac *AdminCatalogController) CreateProduct(c *gin.Context) {
	utils.LogInfo("CreateProduct called")
	input, files, ok := productForm(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	product, err := ac.productService.CreateProduct(ctx, input, files)
	if err != nil {
		fail(c, "CreateProduct", err)
		return
	}
	utils.LogInfo("Product %d (%s) created", product.ID, product.Name)
	utils.Created(c, "Product created successfully", product)
}

func (ac *AdminCatalogController) UpdateProduct(c *gin.Context) {
	utils.LogInfo("UpdateProduct called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	input, files, ok := productForm(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	product, err := ac.productService.UpdateProduct(ctx, id, input, files)
	if err != nil {
		fail(c, "UpdateProduct", err)
		return
	}
	utils.LogInfo("Product %d updated", product.ID)
	utils.Success(c, "Product updated successfully", product)
}

func (ac *AdminCatalogController) ToggleProductListed(c *gin.Context) {
	utils.LogInfo("ToggleProductListed called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	product, err := ac.productService.ToggleListed(ctx, id)
	if err != nil {
		fail(c, "ToggleProductListed", err)
		return
	}
	utils.LogInfo("Product %d listed=%v", product.ID, product.IsListed)
	utils.Success(c, "Product listing updated", product)
}

func (ac *AdminCatalogController) ToggleProductFeatured(c *gin.Context) {
	utils.LogInfo("ToggleProductFeatured called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	product, err := ac.productService.ToggleFeatured(ctx, id)
	if err != nil {
		fail(c, "ToggleProductFeatured", err)
		return
	}
	utils.Success(c, "Product featured flag updated", product)
}

func (ac *AdminCatalogController) DeleteProduct(c *gin.Context) {
	utils.LogInfo("DeleteProduct called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	if err := ac.productService.DeleteProduct(ctx, id); err != nil {
		fail(c, "DeleteProduct", err)
		return
	}
	utils.LogInfo("Product %d deleted", id)
	utils.Success(c, utils.MsgDeleteSuccess, nil)
}

func (ac *AdminCatalogController) ListCategories(c *gin.Context) {
	utils.LogInfo("AdminListCategories called")
	ctx, cancel := WithTimeout(c)
	defer cancel()

	pagination := utils.NewPagination(c)
	categories, err := ac.categoryService.ListCategories(ctx, pagination)
	if err != nil {
		fail(c, "AdminListCategories", err)
		return
	}
	utils.SendPaginatedResponse(c, "Categories retrieved successfully", categories, pagination)
}

// categoryForm reads name, description and an optional image
func categoryForm(c *gin.Context) (services.CategoryInput, *multipart.FileHeader, bool) {
	var input services.CategoryInput
	if err := c.ShouldBind(&input); err != nil {
		utils.RespondWithError(c, err)
		return input, nil, false
	}
	image, err := c.FormFile("image")
	if err != nil && err != http.ErrMissingFile && err != http.ErrNotMultipart {
		utils.LogError("Failed to read category image: %v", err)
		utils.BadRequest(c, "Failed to read image", nil)
		return input, nil, false
	}
	return input, image, true
}

func (ac *AdminCatalogController) CreateCategory(c *gin.Context) {
	utils.LogInfo("CreateCategory called")
	input, image, ok := categoryForm(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	category, err := ac.categoryService.CreateCategory(ctx, input, image)
	if err != nil {
		fail(c, "CreateCategory", err)
		return
	}
	utils.LogInfo("Category %d (%s) created", category.ID, category.Name)
	utils.Created(c, "Category created successfully", category)
}

func (ac *AdminCatalogController) UpdateCategory(c *gin.Context) {
	utils.LogInfo("UpdateCategory called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	input, image, ok := categoryForm(c)
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	category, err := ac.categoryService.UpdateCategory(ctx, id, input, image)
	if err != nil {
		fail(c, "UpdateCategory", err)
		return
	}
	utils.Success(c, "Category updated successfully", category)
}

func (ac *AdminCatalogController) ToggleCategoryListed(c *gin.Context) {
	utils.LogInfo("ToggleCategoryListed called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	category, err := ac.categoryService.ToggleListed(ctx, id)
	if err != nil {
		fail(c, "ToggleCategoryListed", err)
		return
	}
	utils.LogInfo("Category %d listed=%v", category.ID, category.IsListed)
	utils.Success(c, "Category listing updated", category)
}

func (ac *AdminCatalogController) DeleteCategory(c *gin.Context) {
	utils.LogInfo("DeleteCategory called")
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	if err := ac.categoryService.DeleteCategory(ctx, id); err != nil {
		fail(c, "DeleteCategory", err)
		return
	}
	utils.Success(c, utils.MsgDeleteSuccess, nil)
}
