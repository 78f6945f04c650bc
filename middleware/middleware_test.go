package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zekoya/storefront/config"
	"github.com/zekoya/storefront/utils"
)

func protectedRouter(guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", guard, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func request(router http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProtectRejectsBeforeLookup(t *testing.T) {
	original := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = "middleware-secret"
	t.Cleanup(func() { config.AppConfig.JWTSecret = original })

	adminToken, err := utils.GenerateAdminToken(1, "middleware-secret", time.Hour)
	require.NoError(t, err)
	userToken, err := utils.GenerateUserToken(1, 0, "middleware-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := utils.GenerateUserToken(1, 0, "someone-else", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name          string
		guard         gin.HandlerFunc
		authorization string
		want          int
	}{
		{"user without header", UserProtect(), "", http.StatusUnauthorized},
		{"user with basic auth", UserProtect(), "Basic abc", http.StatusUnauthorized},
		{"user with empty bearer", UserProtect(), "Bearer ", http.StatusUnauthorized},
		{"user with foreign signature", UserProtect(), "Bearer " + foreign, http.StatusUnauthorized},
		{"admin token on user route", UserProtect(), "Bearer " + adminToken, http.StatusUnauthorized},
		{"admin without header", AdminProtect(), "", http.StatusUnauthorized},
		{"user token on admin route", AdminProtect(), "Bearer " + userToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(protectedRouter(tt.guard), tt.authorization)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
