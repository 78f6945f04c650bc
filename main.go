package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/config"
	"github.com/zekoya/storefront/routes"
	"github.com/zekoya/storefront/utils"
)

func main() {
	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Error loading config:", err)
	}

	if err := utils.InitLogger(cfg.LogDir); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := config.InitDB(cfg); err != nil {
		utils.LogError("Failed to initialize database: %v", err)
		log.Fatal("Failed to initialize database:", err)
	}
	redisClient := config.ConnectRedis(cfg)

	if err := utils.RegisterValidators(); err != nil {
		utils.LogError("Failed to register validators: %v", err)
		log.Fatal("Failed to register validators:", err)
	}

	router := routes.SetupRouter(config.DB, cfg, redisClient)

	utils.LogInfo("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		utils.LogError("Error starting server: %v", err)
		log.Fatal("Error starting server:", err)
	}
}
