package controllers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
)

// RequestTimeout bounds the database work of a single request
const RequestTimeout = 30 * time.Second

// WithTimeout derives the request context with the standard timeout
func WithTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), RequestTimeout)
}

// currentUser returns the user set by UserProtect, answering 401 when absent
func currentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		utils.LogError("User not found in context")
		utils.Unauthorized(c, "Please login for access")
		return models.User{}, false
	}
	user, ok := value.(models.User)
	if !ok {
		utils.LogError("Invalid user type in context")
		utils.InternalServerError(c, "Invalid user type", nil)
		return models.User{}, false
	}
	return user, true
}

// currentAdmin returns the admin set by AdminProtect
func currentAdmin(c *gin.Context) (models.Admin, bool) {
	value, exists := c.Get("admin")
	if !exists {
		utils.LogError("Admin not found in context")
		utils.Unauthorized(c, "Admin not found in context")
		return models.Admin{}, false
	}
	admin, ok := value.(models.Admin)
	if !ok {
		utils.LogError("Invalid admin type in context")
		utils.InternalServerError(c, "Invalid admin type", nil)
		return models.Admin{}, false
	}
	return admin, true
}

// paramID parses a positive numeric path parameter, answering 400 otherwise
func paramID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.LogError("Invalid %s: %q", name, raw)
		utils.BadRequest(c, "Invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the body and answers with the field errors on failure
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		utils.LogError("Invalid request body on %s: %v", c.FullPath(), err)
		utils.RespondWithError(c, err)
		return false
	}
	return true
}

// fail writes the error response. Server errors are logged by
// RespondWithError; rejections are logged here.
func fail(c *gin.Context, handler string, err error) {
	if appErr := utils.GetAppError(err); appErr != nil && appErr.Code < 500 {
		utils.LogInfo("%s rejected: %v", handler, err)
	}
	utils.RespondWithError(c, err)
}
