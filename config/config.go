package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	JWTSecret   string

	RazorpayKeyID     string
	RazorpayKeySecret string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	RedisURL        string
	LogDir          string
	UploadDir       string
	CORSOrigins     []string
	RateLimitPerSec uint
	ReportCacheTTL  time.Duration

	// Store rules
	MaxCartItemQuantity   int
	FreeShippingThreshold decimal.Decimal
	ShippingCharge        decimal.Decimal
	TaxRate               decimal.Decimal
	ReturnWindowDays      int
}

// AppConfig is the active configuration. It starts with defaults so packages
// can be exercised without calling LoadConfig.
var AppConfig = defaults()

func defaults() *Config {
	return &Config{
		Port:                   "8080",
		Env:                    "development",
		DBHost:                 "localhost",
		DBPort:                 "5432",
		DBUser:                 "postgres",
		DBName:                 "zekoya",
		DBSSLMode:              "disable",
		CloudinaryUploadFolder: "zekoya",
		LogDir:                 "logs",
		UploadDir:              "uploads",
		CORSOrigins:            []string{"http://localhost:3000"},
		RateLimitPerSec:        10,
		ReportCacheTTL:         5 * time.Minute,
		MaxCartItemQuantity:    10,
		FreeShippingThreshold:  decimal.NewFromInt(1000),
		ShippingCharge:         decimal.NewFromInt(50),
		TaxRate:                decimal.Zero,
		ReturnWindowDays:       7,
	}
}

// LoadConfig loads configuration from .env and the environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	d := defaults()
	cfg := &Config{
		Port:        getEnv("PORT", d.Port),
		Env:         getEnv("ENV", d.Env),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", d.DBHost),
		DBPort:      getEnv("DB_PORT", d.DBPort),
		DBUser:      getEnv("DB_USER", d.DBUser),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnv("DB_NAME", d.DBName),
		DBSSLMode:   getEnv("DB_SSLMODE", d.DBSSLMode),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", d.CloudinaryUploadFolder),

		RedisURL:        os.Getenv("REDIS_URL"),
		LogDir:          getEnv("LOG_DIR", d.LogDir),
		UploadDir:       getEnv("UPLOAD_DIR", d.UploadDir),
		CORSOrigins:     getEnvList("CORS_ORIGINS", d.CORSOrigins),
		RateLimitPerSec: uint(getEnvInt("RATE_LIMIT_PER_SECOND", int(d.RateLimitPerSec))),
		ReportCacheTTL:  getEnvDuration("REPORT_CACHE_TTL", d.ReportCacheTTL),

		MaxCartItemQuantity:   getEnvInt("MAX_CART_ITEM_QUANTITY", d.MaxCartItemQuantity),
		FreeShippingThreshold: getEnvDecimal("FREE_SHIPPING_THRESHOLD", d.FreeShippingThreshold),
		ShippingCharge:        getEnvDecimal("SHIPPING_CHARGE", d.ShippingCharge),
		TaxRate:               getEnvDecimal("TAX_RATE", d.TaxRate),
		ReturnWindowDays:      getEnvInt("RETURN_WINDOW_DAYS", d.ReturnWindowDays),
	}

	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET is not set; every authenticated request will be rejected")
	}

	AppConfig = cfg
	return cfg, nil
}

// IsDevelopment reports whether internal error details may be exposed
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Invalid integer for %s: %q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Invalid duration for %s: %q, using %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
		log.Printf("Invalid decimal for %s: %q, using %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
