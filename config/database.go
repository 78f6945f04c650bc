package config

import (
	"fmt"
	"log"
	"time"

	"github.com/zekoya/storefront/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// DSN builds the postgres connection string
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// InitDB opens the database connection and migrates the schema
func InitDB(cfg *Config) error {
	gormCfg := &gorm.Config{}
	if !cfg.IsDevelopment() {
		gormCfg.Logger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	log.Printf("Connected to database %s on %s:%s", cfg.DBName, cfg.DBHost, cfg.DBPort)
	return nil
}

// Migrate creates or updates every table the store uses
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Admin{},
		&models.Category{},
		&models.Product{},
		&models.ProductImage{},
		&models.ProductSize{},
		&models.Cart{},
		&models.CartItem{},
		&models.Wishlist{},
		&models.Coupon{},
		&models.ProductOffer{},
		&models.CategoryOffer{},
		&models.ReferralOffer{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.Payment{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Review{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %v", err)
	}

	// Stock can never go negative, whatever path writes it.
	var exists bool
	err = db.Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.table_constraints
			WHERE constraint_name = 'chk_product_sizes_stock_non_negative'
		)
	`).Scan(&exists).Error
	if err != nil {
		return fmt.Errorf("failed to check stock constraint: %v", err)
	}
	if !exists {
		if err := db.Exec(`ALTER TABLE product_sizes ADD CONSTRAINT chk_product_sizes_stock_non_negative CHECK (stock >= 0)`).Error; err != nil {
			return fmt.Errorf("failed to add stock constraint: %v", err)
		}
	}
	return nil
}
