package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/config"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", false
	}
	return tokenString, true
}

// UserProtect verifies a user token and puts the models.User in "user"
func UserProtect() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.LogInfo("UserProtect called")

		tokenString, ok := bearerToken(c)
		if !ok {
			utils.LogError("Missing or malformed Authorization header")
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString, config.AppConfig.JWTSecret)
		if err != nil {
			utils.LogError("Invalid token: %v", err)
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		userID, ok := utils.ClaimUint(claims, "user_id")
		if !ok {
			utils.LogError("User ID not found in token claims")
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}
		utils.LogDebug("Authenticating user ID: %d", userID)

		var user models.User
		if err := config.DB.First(&user, userID).Error; err != nil {
			utils.LogError("User not found: %v", err)
			utils.Unauthorized(c, "User not found")
			c.Abort()
			return
		}

		tokenVersion, _ := claims["token_version"].(float64)
		if int(tokenVersion) != user.TokenVersion {
			utils.LogError("Revoked token used for user %d", userID)
			utils.Unauthorized(c, "Session expired, please login again")
			c.Abort()
			return
		}

		if user.IsBlocked {
			utils.LogError("Blocked user attempted access: %d", userID)
			utils.Forbidden(c, "Account is blocked")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// AdminProtect verifies an admin token and puts the models.Admin in "admin"
func AdminProtect() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.LogInfo("AdminProtect called")

		tokenString, ok := bearerToken(c)
		if !ok {
			utils.LogError("Missing or malformed Authorization header")
			utils.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString, config.AppConfig.JWTSecret)
		if err != nil {
			utils.LogError("Invalid admin token: %v", err)
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		adminID, ok := utils.ClaimUint(claims, "admin_id")
		if !ok {
			utils.LogError("Admin ID not found in token claims")
			utils.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}

		var admin models.Admin
		if err := config.DB.First(&admin, adminID).Error; err != nil {
			utils.LogError("Admin not found: %v", err)
			utils.Unauthorized(c, "Admin not found")
			c.Abort()
			return
		}

		if !admin.IsActive {
			utils.LogError("Inactive admin attempted access: %d", admin.ID)
			utils.Forbidden(c, "Admin account is inactive")
			c.Abort()
			return
		}

		c.Set("admin", admin)
		utils.LogInfo("Admin %d authenticated successfully", admin.ID)
		c.Next()
	}
}
