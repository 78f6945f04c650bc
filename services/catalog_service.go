package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

// Sort orders accepted by ListProducts
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

type CatalogServiceImpl struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogServiceImpl {
	return &CatalogServiceImpl{db: db}
}

// visibleProducts limits a query to listed products in listed categories
func visibleProducts(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Product{}).
		Joins("JOIN categories ON categories.id = products.category_id AND categories.deleted_at IS NULL").
		Where("products.is_listed = ? AND categories.is_listed = ?", true, true)
}

// applyProductFilter adds the shared catalog filters to q
func applyProductFilter(q *gorm.DB, filter ProductFilter) *gorm.DB {
	if filter.CategoryID != 0 {
		q = q.Where("products.category_id = ?", filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(products.brand) LIKE ? OR LOWER(products.description) LIKE ?", like, like, like)
	}
	if brand := strings.TrimSpace(filter.Brand); brand != "" {
		q = q.Where("LOWER(products.brand) = ?", strings.ToLower(brand))
	}
	if filter.Size != "" {
		q = q.Where("EXISTS (SELECT 1 FROM product_sizes ps WHERE ps.product_id = products.id AND ps.size = ? AND ps.stock > 0)", filter.Size)
	}
	if filter.MinPrice != nil {
		q = q.Where("products.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("products.price <= ?", *filter.MaxPrice)
	}
	if filter.Listed != nil {
		q = q.Where("products.is_listed = ?", *filter.Listed)
	}

	switch filter.Sort {
	case SortPriceAsc:
		q = q.Order("products.price ASC")
	case SortPriceDesc:
		q = q.Order("products.price DESC")
	case SortName:
		q = q.Order("products.name ASC")
	default:
		q = q.Order("products.created_at DESC")
	}
	return q.Order("products.id DESC")
}

func preloadProduct(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (s *CatalogServiceImpl) ListProducts(ctx context.Context, filter ProductFilter, p *utils.Pagination) ([]ProductView, error) {
	filter.Listed = nil
	q := applyProductFilter(visibleProducts(s.db.WithContext(ctx)), filter)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count products")
	}
	p.SetTotal(total)

	var products []models.Product
	if err := preloadProduct(p.Scope(q)).Select("products.*").Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return productViews(s.db.WithContext(ctx), products)
}

func (s *CatalogServiceImpl) FeaturedProducts(ctx context.Context, limit int) ([]ProductView, error) {
	if limit <= 0 || limit > utils.MaxPaginationLimit {
		limit = utils.DefaultPaginationLimit
	}
	var products []models.Product
	if err := preloadProduct(visibleProducts(s.db.WithContext(ctx))).
		Select("products.*").
		Where("products.is_featured = ?", true).
		Order("products.updated_at DESC").Limit(limit).
		Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "list featured products")
	}
	return productViews(s.db.WithContext(ctx), products)
}

func (s *CatalogServiceImpl) GetProduct(ctx context.Context, id uint) (*ProductView, error) {
	var product models.Product
	err := preloadProduct(visibleProducts(s.db.WithContext(ctx))).
		Select("products.*").
		Where("products.id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("Product not found", nil)
		}
		return nil, errors.Wrap(err, "get product")
	}
	views, err := productViews(s.db.WithContext(ctx), []models.Product{product})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CatalogServiceImpl) ListCategories(ctx context.Context) ([]models.Category, error) {
	db := s.db.WithContext(ctx)
	var categories []models.Category
	if err := db.Where("is_listed = ?", true).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	if err := attachProductCounts(db, categories, true); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *CatalogServiceImpl) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	db := s.db.WithContext(ctx)
	var category models.Category
	if err := db.Where("id = ? AND is_listed = ?", id, true).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError("Category not found", nil)
		}
		return nil, errors.Wrap(err, "get category")
	}
	list := []models.Category{category}
	if err := attachProductCounts(db, list, true); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ActiveOffers lists the offers running right now
func (s *CatalogServiceImpl) ActiveOffers(ctx context.Context) (*ActiveOffersView, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()
	view := &ActiveOffersView{}

	active := "is_active = ? AND start_date <= ? AND end_date >= ?"
	if err := db.Where(active, true, now, now).Order("end_date ASC").Find(&view.ProductOffers).Error; err != nil {
		return nil, errors.Wrap(err, "list product offers")
	}
	if err := db.Where(active, true, now, now).Order("end_date ASC").Find(&view.CategoryOffers).Error; err != nil {
		return nil, errors.Wrap(err, "list category offers")
	}
	referral, err := activeReferralOffer(db, now)
	if err != nil {
		return nil, err
	}
	view.ReferralOffer = referral
	return view, nil
}

// attachProductCounts fills ProductCount on each category
func attachProductCounts(db *gorm.DB, categories []models.Category, listedOnly bool) error {
	if len(categories) == 0 {
		return nil
	}
	ids := make([]uint, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}

	var rows []struct {
		CategoryID uint
		Count      int64
	}
	q := db.Model(&models.Product{}).Select("category_id, COUNT(*) AS count").Where("category_id IN ?", ids)
	if listedOnly {
		q = q.Where("is_listed = ?", true)
	}
	if err := q.Group("category_id").Scan(&rows).Error; err != nil {
		return errors.Wrap(err, "count products per category")
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	for i := range categories {
		categories[i].ProductCount = counts[categories[i].ID]
	}
	return nil
}

type ratingSummary struct {
	ProductID uint
	Average   float64
	Count     int64
}

func ratingSummaries(db *gorm.DB, productIDs []uint) (map[uint]ratingSummary, error) {
	out := make(map[uint]ratingSummary, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []ratingSummary
	if err := db.Model(&models.Review{}).
		Select("product_id, COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("product_id IN ?", productIDs).
		Group("product_id").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "summarise ratings")
	}
	for _, r := range rows {
		out[r.ProductID] = r
	}
	return out, nil
}

// productViews prices each product with its best active offer and attaches
// its rating summary
func productViews(db *gorm.DB, products []models.Product) ([]ProductView, error) {
	ids := make([]uint, len(products))
	categoryIDs := make([]uint, len(products))
	for i, p := range products {
		ids[i] = p.ID
		categoryIDs[i] = p.CategoryID
	}

	offers, err := utils.LoadActiveOffers(db, ids, categoryIDs, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "load offers")
	}
	ratings, err := ratingSummaries(db, ids)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, len(products))
	for i := range products {
		r := ratings[products[i].ID]
		views[i] = ProductView{
			Product:       products[i],
			Offer:         offers.For(&products[i]),
			AverageRating: roundRating(r.Average),
			ReviewCount:   r.Count,
		}
	}
	return views, nil
}

func roundRating(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
