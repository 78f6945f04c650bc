package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/zekoya/storefront/config"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartServiceImpl struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewCartService(db *gorm.DB, cfg *config.Config) *CartServiceImpl {
	return &CartServiceImpl{db: db, cfg: cfg}
}

// GetCart returns the cart with every line annotated against current
// product, category and stock state. Nothing about the lines is written.
func (s *CartServiceImpl) GetCart(ctx context.Context, userID uint) (*utils.CartView, error) {
	db := s.db.WithContext(ctx)
	cart, err := getOrCreateCart(db, userID)
	if err != nil {
		return nil, err
	}
	return buildCartView(db, cart, time.Now())
}

func (s *CartServiceImpl) AddToCart(ctx context.Context, userID uint, req AddToCartRequest) (*utils.CartView, error) {
	if err := s.checkQuantity(req.Quantity); err != nil {
		return nil, err
	}

	var cart *models.Cart
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Preload("Category").Preload("Sizes").First(&product, req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundError("Product not found", nil)
			}
			return errors.Wrap(err, "load product")
		}
		if err := checkPurchasable(&product, req.Size, req.Quantity); err != nil {
			return err
		}

		var err error
		cart, err = lockCart(tx, userID)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ? AND size = ?", cart.ID, req.ProductID, req.Size).
			Count(&existing).Error; err != nil {
			return errors.Wrap(err, "check cart line")
		}
		if existing > 0 {
			return utils.ConflictError(fmt.Sprintf("%s (size %s) is already in your cart", product.Name, req.Size), nil).
				WithType(utils.ErrTypeDuplicateItem)
		}

		item := models.CartItem{CartID: cart.ID, ProductID: req.ProductID, Size: req.Size, Quantity: req.Quantity}
		if err := tx.Create(&item).Error; err != nil {
			if utils.IsUniqueViolation(err) {
				return utils.ConflictError("Item is already in your cart", err).WithType(utils.ErrTypeDuplicateItem)
			}
			return errors.Wrap(err, "add cart line")
		}

		if err := tx.Where("user_id = ? AND product_id = ?", userID, req.ProductID).Delete(&models.Wishlist{}).Error; err != nil {
			return errors.Wrap(err, "remove from wishlist")
		}
		return tx.Model(cart).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Added product %d size %s x%d to cart of user %d", req.ProductID, req.Size, req.Quantity, userID)
	return buildCartView(s.db.WithContext(ctx), cart, time.Now())
}

func (s *CartServiceImpl) UpdateCartItemQuantity(ctx context.Context, userID, itemID uint, quantity int) (*utils.CartView, error) {
	if err := s.checkQuantity(quantity); err != nil {
		return nil, err
	}

	var cart *models.Cart
	err := utils.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		cart, err = lockCart(tx, userID)
		if err != nil {
			return err
		}

		var item models.CartItem
		if err := tx.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundError("Cart item not found", nil)
			}
			return errors.Wrap(err, "load cart item")
		}

		var product models.Product
		if err := tx.Preload("Category").Preload("Sizes").First(&product, item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.BadRequestError("This product is no longer available", nil).
					WithType(utils.ErrTypeItemUnavailable).
					WithDetails("reason", utils.ReasonProductMissing)
			}
			return errors.Wrap(err, "load product")
		}
		if err := checkPurchasable(&product, item.Size, quantity); err != nil {
			return err
		}

		return tx.Model(&item).Update("quantity", quantity).Error
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Cart item %d of user %d set to quantity %d", itemID, userID, quantity)
	return buildCartView(s.db.WithContext(ctx), cart, time.Now())
}

func (s *CartServiceImpl) RemoveFromCart(ctx context.Context, userID, itemID uint) (*utils.CartView, error) {
	db := s.db.WithContext(ctx)
	cart, err := getOrCreateCart(db, userID)
	if err != nil {
		return nil, err
	}

	result := db.Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&models.CartItem{})
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "remove cart item")
	}
	if result.RowsAffected == 0 {
		return nil, utils.NotFoundError("Cart item not found", nil)
	}

	utils.LogInfo("Removed cart item %d for user %d", itemID, userID)
	return buildCartView(db, cart, time.Now())
}

func (s *CartServiceImpl) checkQuantity(quantity int) error {
	if quantity < 1 {
		return utils.BadRequestError("Quantity must be at least 1", nil).WithType(utils.ErrTypeValidation)
	}
	if quantity > s.cfg.MaxCartItemQuantity {
		return utils.BadRequestError(fmt.Sprintf("You can add at most %d units of an item", s.cfg.MaxCartItemQuantity), nil).
			WithType(utils.ErrTypeMaxQuantity).
			WithDetails("maxQuantity", s.cfg.MaxCartItemQuantity)
	}
	return nil
}

// checkPurchasable applies the cart availability rules to a product that
// the buyer wants quantity units of
func checkPurchasable(product *models.Product, size string, quantity int) error {
	unavailable := func(reason, message string) error {
		return utils.BadRequestError(message, nil).
			WithType(utils.ErrTypeItemUnavailable).
			WithDetails("productId", product.ID).
			WithDetails("reason", reason)
	}

	if !product.IsListed {
		return unavailable(utils.ReasonProductUnlisted, fmt.Sprintf("%s is not available", product.Name))
	}
	if product.Category == nil || !product.Category.IsListed {
		return unavailable(utils.ReasonCategoryUnavailable, fmt.Sprintf("%s is not available", product.Name))
	}
	ps, ok := product.FindSize(size)
	if !ok {
		return unavailable(utils.ReasonSizeUnavailable, fmt.Sprintf("%s is not available in size %s", product.Name, size))
	}
	if ps.Stock <= 0 {
		return unavailable(utils.ReasonOutOfStock, fmt.Sprintf("%s (size %s) is out of stock", product.Name, size))
	}
	if ps.Stock < quantity {
		return utils.BadRequestError(fmt.Sprintf("Only %d units of %s (size %s) are available", ps.Stock, product.Name, size), nil).
			WithType(utils.ErrTypeInsufficientStock).
			WithDetails("productId", product.ID).
			WithDetails("availableStock", ps.Stock)
	}
	return nil
}

// checkoutQuantity is the quantity the cart view shows for a line: the stored
// quantity clamped to the size's stock when some stock is left.
func checkoutQuantity(product *models.Product, line models.CartItem) int {
	if ps, ok := product.FindSize(line.Size); ok && ps.Stock > 0 && ps.Stock < line.Quantity {
		return ps.Stock
	}
	return line.Quantity
}

func getOrCreateCart(db *gorm.DB, userID uint) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&cart).Error; err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return &cart, nil
}

// lockCart returns the user's cart row locked for the rest of tx
func lockCart(tx *gorm.DB, userID uint) (*models.Cart, error) {
	if _, err := getOrCreateCart(tx, userID); err != nil {
		return nil, err
	}
	var cart models.Cart
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, errors.Wrap(err, "lock cart")
	}
	return &cart, nil
}

func clearCart(tx *gorm.DB, userID uint) error {
	err := tx.Exec("DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = ?)", userID).Error
	return errors.Wrapf(err, "clear cart of user %d", userID)
}

// loadProducts reads products with category, sizes and images keyed by id.
// Deleted products are absent from the map.
func loadProducts(db *gorm.DB, ids []uint) (map[uint]*models.Product, error) {
	out := make(map[uint]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := db.Preload("Category").Preload("Sizes").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func buildCartView(db *gorm.DB, cart *models.Cart, now time.Time) (*utils.CartView, error) {
	var items []models.CartItem
	if err := db.Where("cart_id = ?", cart.ID).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "load cart items")
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := loadProducts(db, ids)
	if err != nil {
		return nil, err
	}

	categoryIDs := make([]uint, 0, len(products))
	for _, p := range products {
		categoryIDs = append(categoryIDs, p.CategoryID)
	}
	offers, err := utils.LoadActiveOffers(db, ids, categoryIDs, now)
	if err != nil {
		return nil, errors.Wrap(err, "load offers")
	}

	views := make([]utils.CartItemView, 0, len(items))
	for _, item := range items {
		product := products[item.ProductID]
		var offer utils.AppliedOffer
		if product != nil {
			offer = offers.For(product)
		}
		views = append(views, utils.EvaluateCartItem(item, product, offer))
	}

	view := utils.BuildCartView(cart.ID, views)
	return &view, nil
}
