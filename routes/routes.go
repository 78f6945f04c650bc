package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/zekoya/storefront/config"
	"github.com/zekoya/storefront/middleware"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

// SetupRouter builds the engine with the global middleware and every route
func SetupRouter(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *gin.Engine {
	sc := NewServiceContainer(db, cfg, redisClient)

	router := gin.New()
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.CORSMiddleware(cfg.CORSOrigins))
	router.Use(utils.SecurityHeadersMiddleware())

	// Local product images and invoices when Cloudinary is not configured
	router.Static("/uploads", cfg.UploadDir)

	api := router.Group("/api", middleware.RateLimiter(redisClient, cfg.RateLimitPerSec))
	{
		api.GET("/health", healthCheck(db, redisClient))

		initPublicRoutes(api, sc)
		initUserRoutes(api, sc)
		initAdminRoutes(api, sc)
	}

	return router
}

func healthCheck(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "up", "redis": "disabled"}
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			utils.LogError("Health check: database unreachable: %v", err)
			utils.RespondWithError(c, utils.ServiceUnavailableError("Database unavailable", err))
			return
		}
		if redisClient != nil {
			status["redis"] = "up"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				utils.LogError("Health check: redis unreachable: %v", err)
				status["redis"] = "down"
			}
		}
		utils.Success(c, "OK", status)
	}
}

// initPublicRoutes registers the catalog browsing routes
func initPublicRoutes(api *gin.RouterGroup, sc *ServiceContainer) {
	catalog := sc.CatalogController

	products := api.Group("/products")
	{
		products.GET("", catalog.ListProducts)
		products.GET("/featured", catalog.FeaturedProducts)
		products.GET("/:id", catalog.GetProduct)
		products.GET("/:id/reviews", catalog.ListReviews)
		products.POST("/:id/reviews", middleware.UserProtect(), catalog.AddReview)
	}

	api.GET("/categories", catalog.ListCategories)
	api.GET("/categories/:id", catalog.GetCategory)
	api.GET("/offers/active", catalog.ActiveOffers)
}
