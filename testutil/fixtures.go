package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

var seq int64

func next() int64 {
	return atomic.AddInt64(&seq, 1)
}

func CreateUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := next()
	user := models.User{Name: fmt.Sprintf("Test User %d", n), Email: fmt.Sprintf("user%d@example.com", n)}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return &user
}

func CreateAdmin(t *testing.T, db *gorm.DB) *models.Admin {
	t.Helper()
	n := next()
	admin := models.Admin{Name: "Admin", Email: fmt.Sprintf("admin%d@example.com", n), IsActive: true}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}
	return &admin
}

func CreateCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := models.Category{Name: name, Slug: fmt.Sprintf("%s-%d", utils.Slugify(name, ""), next()), IsListed: true}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	return &category
}

// CreateProduct adds a listed product with the given stock per size
func CreateProduct(t *testing.T, db *gorm.DB, categoryID uint, price string, stock map[string]int) *models.Product {
	t.Helper()
	n := next()
	product := models.Product{
		Name:       fmt.Sprintf("Tee %d", n),
		Slug:       fmt.Sprintf("tee-%d", n),
		Brand:      "Zekoya",
		Price:      decimal.RequireFromString(price),
		CategoryID: categoryID,
		IsListed:   true,
		Images: []models.ProductImage{
			{URL: "/uploads/a.jpg", Position: 0},
			{URL: "/uploads/b.jpg", Position: 1},
			{URL: "/uploads/c.jpg", Position: 2},
		},
	}
	for _, size := range models.ProductSizes {
		if s, ok := stock[size]; ok {
			product.Sizes = append(product.Sizes, models.ProductSize{Size: size, Stock: s})
		}
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return &product
}

func CreateAddress(t *testing.T, db *gorm.DB, userID uint) *models.Address {
	t.Helper()
	address := models.Address{
		UserID:     userID,
		FullName:   "Asha Rao",
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
		IsDefault:  true,
	}
	if err := db.Create(&address).Error; err != nil {
		t.Fatalf("Failed to create address: %v", err)
	}
	return &address
}

// FundWallet credits the user's wallet
func FundWallet(t *testing.T, db *gorm.DB, userID uint, amount string) {
	t.Helper()
	err := utils.WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		_, err := utils.CreditWallet(tx, utils.WalletEntry{
			UserID:      userID,
			Amount:      decimal.RequireFromString(amount),
			Description: "Test funds",
			Reference:   fmt.Sprintf("TEST-FUND-%d", next()),
		})
		return err
	})
	if err != nil {
		t.Fatalf("Failed to fund wallet: %v", err)
	}
}

// AddCartItem puts a line straight into the user's cart
func AddCartItem(t *testing.T, db *gorm.DB, userID, productID uint, size string, quantity int) {
	t.Helper()
	cart := models.Cart{UserID: userID}
	if err := db.Where("user_id = ?", userID).FirstOrCreate(&cart).Error; err != nil {
		t.Fatalf("Failed to create cart: %v", err)
	}
	item := models.CartItem{CartID: cart.ID, ProductID: productID, Size: size, Quantity: quantity}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("Failed to add cart item: %v", err)
	}
}

// WalletBalance reads the current balance, zero when no wallet exists
func WalletBalance(t *testing.T, db *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()
	var wallet models.Wallet
	err := db.Where("user_id = ?", userID).Limit(1).Find(&wallet).Error
	if err != nil {
		t.Fatalf("Failed to load wallet: %v", err)
	}
	return wallet.Balance
}

// SizeStock reads the stock of one size
func SizeStock(t *testing.T, db *gorm.DB, productID uint, size string) int {
	t.Helper()
	var ps models.ProductSize
	if err := db.Where("product_id = ? AND size = ?", productID, size).First(&ps).Error; err != nil {
		t.Fatalf("Failed to load size stock: %v", err)
	}
	return ps.Stock
}
