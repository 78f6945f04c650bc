package services

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/pkg/errors"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

type AdminCategoryServiceImpl struct {
	db     *gorm.DB
	images ImageStore
}

func NewAdminCategoryService(db *gorm.DB, images ImageStore) *AdminCategoryServiceImpl {
	return &AdminCategoryServiceImpl{db: db, images: images}
}

func (s *AdminCategoryServiceImpl) ListCategories(ctx context.Context, p *utils.Pagination) ([]models.Category, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Category{})

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count categories")
	}
	p.SetTotal(total)

	var categories []models.Category
	if err := p.Scope(q).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	if err := attachProductCounts(db, categories, false); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *AdminCategoryServiceImpl) checkName(db *gorm.DB, input *CategoryInput, excludeID uint) error {
	input.Name = utils.Title(strings.TrimSpace(input.Name))
	input.Description = utils.SanitizeString(input.Description)
	if len(input.Name) < 2 || len(input.Name) > 60 {
		return utils.BadRequestError("Category name must be 2 to 60 characters", nil).WithType(utils.ErrTypeValidation)
	}

	var count int64
	if err := db.Model(&models.Category{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(input.Name), excludeID).
		Count(&count).Error; err != nil {
		return errors.Wrap(err, "check category name")
	}
	if count > 0 {
		return utils.ConflictError("A category with this name already exists", nil).WithType(utils.ErrTypeAlreadyExists)
	}
	return nil
}

func (s *AdminCategoryServiceImpl) CreateCategory(ctx context.Context, input CategoryInput, image *multipart.FileHeader) (*models.Category, error) {
	db := s.db.WithContext(ctx)
	if err := s.checkName(db, &input, 0); err != nil {
		return nil, err
	}

	category := models.Category{Name: input.Name, Description: input.Description, IsListed: true}
	var uploaded *UploadedImage
	if image != nil {
		if err := validateImages([]*multipart.FileHeader{image}); err != nil {
			return nil, err
		}
		img, err := uploadFile(ctx, s.images, image)
		if err != nil {
			return nil, err
		}
		uploaded = &img
		category.Image = img.URL
		category.ImagePublicID = img.PublicID
	}

	slug, err := uniqueSlug(db, &models.Category{}, category.Name, 0)
	if err == nil {
		category.Slug = slug
		err = db.Create(&category).Error
	}
	if err != nil {
		if uploaded != nil {
			destroyImages(ctx, s.images, uploaded.PublicID)
		}
		return nil, errors.Wrap(err, "create category")
	}

	utils.LogInfo("Category %d (%s) created", category.ID, category.Name)
	return &category, nil
}

func (s *AdminCategoryServiceImpl) getCategory(db *gorm.DB, id uint) (*models.Category, error) {
	var category models.Category
	if err := db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("Category not found", nil)
		}
		return nil, errors.Wrap(err, "get category")
	}
	return &category, nil
}

func (s *AdminCategoryServiceImpl) UpdateCategory(ctx context.Context, id uint, input CategoryInput, image *multipart.FileHeader) (*models.Category, error) {
	db := s.db.WithContext(ctx)
	category, err := s.getCategory(db, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkName(db, &input, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"name": input.Name, "description": input.Description}
	if input.Name != category.Name {
		slug, err := uniqueSlug(db, &models.Category{}, input.Name, id)
		if err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}

	oldImage := ""
	var uploaded *UploadedImage
	if image != nil {
		if err := validateImages([]*multipart.FileHeader{image}); err != nil {
			return nil, err
		}
		img, err := uploadFile(ctx, s.images, image)
		if err != nil {
			return nil, err
		}
		uploaded = &img
		oldImage = category.ImagePublicID
		updates["image"] = img.URL
		updates["image_public_id"] = img.PublicID
	}

	if err := db.Model(category).Updates(updates).Error; err != nil {
		if uploaded != nil {
			destroyImages(ctx, s.images, uploaded.PublicID)
		}
		return nil, errors.Wrap(err, "update category")
	}
	destroyImages(ctx, s.images, oldImage)

	utils.LogInfo("Category %d updated", id)
	return s.getCategory(db, id)
}

// ToggleListed hides or shows a category. Products in an unlisted category
// disappear from the catalog and show as unavailable in carts.
func (s *AdminCategoryServiceImpl) ToggleListed(ctx context.Context, id uint) (*models.Category, error) {
	db := s.db.WithContext(ctx)
	result := db.Model(&models.Category{}).Where("id = ?", id).Update("is_listed", gorm.Expr("NOT is_listed"))
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "toggle category")
	}
	if result.RowsAffected == 0 {
		return nil, utils.NotFoundError("Category not found", nil)
	}
	utils.LogInfo("Toggled listing of category %d", id)
	return s.getCategory(db, id)
}

// DeleteCategory soft-deletes an empty category
func (s *AdminCategoryServiceImpl) DeleteCategory(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	category, err := s.getCategory(db, id)
	if err != nil {
		return err
	}

	var products int64
	if err := db.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
		return errors.Wrap(err, "count category products")
	}
	if products > 0 {
		return utils.ConflictError("Category still has products", nil).WithDetails("productCount", products)
	}

	if err := db.Delete(category).Error; err != nil {
		return errors.Wrap(err, "delete category")
	}
	destroyImages(ctx, s.images, category.ImagePublicID)
	utils.LogInfo("Category %d deleted", id)
	return nil
}
