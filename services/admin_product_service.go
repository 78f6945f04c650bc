package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminProductServiceImpl struct {
	db     *gorm.DB
	images ImageStore
}

func NewAdminProductService(db *gorm.DB, images ImageStore) *AdminProductServiceImpl {
	return &AdminProductServiceImpl{db: db, images: images}
}

func (s *AdminProductServiceImpl) ListProducts(ctx context.Context, filter ProductFilter, p *utils.Pagination) ([]models.Product, error) {
	q := applyProductFilter(s.db.WithContext(ctx).Model(&models.Product{}), filter)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count products")
	}
	p.SetTotal(total)

	var products []models.Product
	if err := preloadProduct(p.Scope(q)).Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

func (s *AdminProductServiceImpl) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := preloadProduct(s.db.WithContext(ctx)).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("Product not found", nil)
		}
		return nil, errors.Wrap(err, "get product")
	}
	return &product, nil
}

// validateProductInput normalises input and checks the fields every save needs
func (s *AdminProductServiceImpl) validateProductInput(db *gorm.DB, input *ProductInput) error {
	var fieldErrs utils.FieldValidationErrors

	input.Name = strings.TrimSpace(input.Name)
	input.Brand = strings.TrimSpace(input.Brand)
	input.Description = utils.SanitizeString(input.Description)

	if len(input.Name) < 2 || len(input.Name) > 120 {
		fieldErrs = append(fieldErrs, utils.FieldValidationError{Field: "name", Message: "Name must be 2 to 120 characters"})
	}
	if input.Brand == "" {
		fieldErrs = append(fieldErrs, utils.FieldValidationError{Field: "brand", Message: "Brand is required"})
	}
	if !input.Price.IsPositive() {
		fieldErrs = append(fieldErrs, utils.FieldValidationError{Field: "price", Message: "Price must be greater than 0"})
	}
	if len(input.Sizes) == 0 {
		fieldErrs = append(fieldErrs, utils.FieldValidationError{Field: "sizes", Message: "At least one size is required"})
	}
	seen := map[string]bool{}
	for _, sz := range input.Sizes {
		switch {
		case !models.IsValidSize(sz.Size):
			fieldErrs = append(fieldErrs, utils.FieldValidationError{Field: "sizes", Message: fmt.Sprintf("Unknown size %q", sz.Size)})
		case seen[sz.Size]:
			fieldErrs = append(fieldErrs, utils.FieldValidationError{Field: "sizes", Message: fmt.Sprintf("Size %s is listed twice", sz.Size)})
		case sz.Stock < 0:
			fieldErrs = append(fieldErrs, utils.FieldValidationError{Field: "sizes", Message: fmt.Sprintf("Stock for size %s cannot be negative", sz.Size)})
		}
		seen[sz.Size] = true
	}
	if len(fieldErrs) > 0 {
		return utils.BadRequestError("Invalid product", fieldErrs).
			WithType(utils.ErrTypeValidation).
			WithDetails("fields", fieldErrs)
	}

	var category models.Category
	if err := db.First(&category, input.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.BadRequestError("Category not found", nil).WithType(utils.ErrTypeValidation)
		}
		return errors.Wrap(err, "load category")
	}
	return nil
}

func validateImages(files []*multipart.FileHeader) error {
	for _, f := range files {
		if err := utils.ValidateImageFile(f); err != nil {
			return utils.BadRequestError(err.Error(), nil).WithType(utils.ErrTypeValidation)
		}
	}
	return nil
}

// uploadImages uploads files in order. On failure the images already
// uploaded are removed again.
func (s *AdminProductServiceImpl) uploadImages(ctx context.Context, files []*multipart.FileHeader) ([]UploadedImage, error) {
	uploaded := make([]UploadedImage, 0, len(files))
	for _, fh := range files {
		img, err := uploadFile(ctx, s.images, fh)
		if err != nil {
			destroyImages(ctx, s.images, publicIDs(uploaded)...)
			return nil, err
		}
		uploaded = append(uploaded, img)
	}
	return uploaded, nil
}

func uploadFile(ctx context.Context, store ImageStore, fh *multipart.FileHeader) (UploadedImage, error) {
	f, err := fh.Open()
	if err != nil {
		return UploadedImage{}, utils.BadRequestError("Could not read "+fh.Filename, err)
	}
	defer f.Close()

	img, err := store.Upload(ctx, f)
	if err != nil {
		if errors.Is(err, ErrImageStoreDisabled) {
			return UploadedImage{}, utils.ServiceUnavailableError("Image uploads are not configured", err)
		}
		return UploadedImage{}, utils.InternalError("Failed to upload "+fh.Filename, err)
	}
	return img, nil
}

func publicIDs(images []UploadedImage) []string {
	ids := make([]string, len(images))
	for i, img := range images {
		ids[i] = img.PublicID
	}
	return ids
}

// uniqueSlug slugifies name, adding a short random suffix when taken
func uniqueSlug(db *gorm.DB, model interface{}, name string, excludeID uint) (string, error) {
	slug := utils.Slugify(name, "")
	var count int64
	if err := db.Unscoped().Model(model).Where("slug = ? AND id <> ?", slug, excludeID).Count(&count).Error; err != nil {
		return "", errors.Wrap(err, "check slug")
	}
	if count == 0 {
		return slug, nil
	}
	return utils.Slugify(name, uuid.NewString()[:6]), nil
}

func (s *AdminProductServiceImpl) CreateProduct(ctx context.Context, input ProductInput, files []*multipart.FileHeader) (*models.Product, error) {
	db := s.db.WithContext(ctx)
	if err := s.validateProductInput(db, &input); err != nil {
		return nil, err
	}
	if len(files) < models.MinProductImages {
		return nil, utils.BadRequestError(fmt.Sprintf("At least %d images are required", models.MinProductImages), nil).
			WithType(utils.ErrTypeValidation)
	}
	if err := validateImages(files); err != nil {
		return nil, err
	}

	uploaded, err := s.uploadImages(ctx, files)
	if err != nil {
		return nil, err
	}

	product := models.Product{
		Name:        input.Name,
		Description: input.Description,
		Brand:       input.Brand,
		Price:       input.Price.Round(2),
		CategoryID:  input.CategoryID,
		IsListed:    true,
	}
	for _, sz := range input.Sizes {
		product.Sizes = append(product.Sizes, models.ProductSize{Size: sz.Size, Stock: sz.Stock})
	}
	for i, img := range uploaded {
		product.Images = append(product.Images, models.ProductImage{URL: img.URL, PublicID: img.PublicID, Position: i})
	}

	err = utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		slug, err := uniqueSlug(tx, &models.Product{}, product.Name, 0)
		if err != nil {
			return err
		}
		product.Slug = slug
		return errors.Wrap(tx.Create(&product).Error, "create product")
	})
	if err != nil {
		destroyImages(ctx, s.images, publicIDs(uploaded)...)
		return nil, err
	}

	utils.LogInfo("Product %d (%s) created with %d sizes, total stock %d", product.ID, product.Name, len(product.Sizes), product.TotalStock)
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct replaces the product's fields and size set. New images, when
// given, replace all current images; the old ones are destroyed after commit.
func (s *AdminProductServiceImpl) UpdateProduct(ctx context.Context, id uint, input ProductInput, files []*multipart.FileHeader) (*models.Product, error) {
	db := s.db.WithContext(ctx)
	if err := s.validateProductInput(db, &input); err != nil {
		return nil, err
	}
	if len(files) > 0 && len(files) < models.MinProductImages {
		return nil, utils.BadRequestError(fmt.Sprintf("Replace images with at least %d new images", models.MinProductImages), nil).
			WithType(utils.ErrTypeValidation)
	}
	if err := validateImages(files); err != nil {
		return nil, err
	}
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	uploaded, err := s.uploadImages(ctx, files)
	if err != nil {
		return nil, err
	}

	var replaced []string
	err = utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
			return errors.Wrap(err, "lock product")
		}

		updates := map[string]interface{}{
			"name":        input.Name,
			"description": input.Description,
			"brand":       input.Brand,
			"price":       input.Price.Round(2),
			"category_id": input.CategoryID,
		}
		if input.Name != product.Name {
			slug, err := uniqueSlug(tx, &models.Product{}, input.Name, product.ID)
			if err != nil {
				return err
			}
			updates["slug"] = slug
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "update product")
		}

		keep := make([]string, 0, len(input.Sizes))
		for _, sz := range input.Sizes {
			keep = append(keep, sz.Size)
			row := models.ProductSize{ProductID: product.ID, Size: sz.Size, Stock: sz.Stock}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "product_id"}, {Name: "size"}},
				DoUpdates: clause.AssignmentColumns([]string{"stock"}),
			}).Create(&row).Error; err != nil {
				return errors.Wrapf(err, "save size %s", sz.Size)
			}
		}
		if err := tx.Where("product_id = ? AND size NOT IN ?", product.ID, keep).Delete(&models.ProductSize{}).Error; err != nil {
			return errors.Wrap(err, "remove sizes")
		}
		if err := syncTotalStock(tx, product.ID); err != nil {
			return err
		}

		if len(uploaded) > 0 {
			var old []models.ProductImage
			if err := tx.Where("product_id = ?", product.ID).Find(&old).Error; err != nil {
				return errors.Wrap(err, "load images")
			}
			for _, img := range old {
				replaced = append(replaced, img.PublicID)
			}
			if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
				return errors.Wrap(err, "remove images")
			}
			for i, img := range uploaded {
				row := models.ProductImage{ProductID: product.ID, URL: img.URL, PublicID: img.PublicID, Position: i}
				if err := tx.Create(&row).Error; err != nil {
					return errors.Wrap(err, "save image")
				}
			}
		}
		return nil
	})
	if err != nil {
		destroyImages(ctx, s.images, publicIDs(uploaded)...)
		return nil, err
	}

	destroyImages(ctx, s.images, replaced...)
	utils.LogInfo("Product %d updated", id)
	return s.GetProduct(ctx, id)
}

func (s *AdminProductServiceImpl) ToggleListed(ctx context.Context, id uint) (*models.Product, error) {
	return s.toggle(ctx, id, "is_listed")
}

func (s *AdminProductServiceImpl) ToggleFeatured(ctx context.Context, id uint) (*models.Product, error) {
	return s.toggle(ctx, id, "is_featured")
}

func (s *AdminProductServiceImpl) toggle(ctx context.Context, id uint, column string) (*models.Product, error) {
	result := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		Update(column, gorm.Expr("NOT "+column))
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "toggle %s", column)
	}
	if result.RowsAffected == 0 {
		return nil, utils.NotFoundError("Product not found", nil)
	}
	utils.LogInfo("Toggled %s on product %d", column, id)
	return s.GetProduct(ctx, id)
}

// DeleteProduct soft-deletes the product. Orders keep their own copy of the
// product details; carts show the line as missing.
func (s *AdminProductServiceImpl) DeleteProduct(ctx context.Context, id uint) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Product{}, id).Error; err != nil {
		return errors.Wrap(err, "delete product")
	}

	ids := make([]string, 0, len(product.Images))
	for _, img := range product.Images {
		ids = append(ids, img.PublicID)
	}
	destroyImages(ctx, s.images, ids...)
	utils.LogInfo("Product %d deleted", id)
	return nil
}
