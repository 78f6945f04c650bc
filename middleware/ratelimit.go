package middleware

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/zekoya/storefront/utils"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	utils.LogError("Rate limit exceeded for %s on %s", c.ClientIP(), c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.StandardResponse{
		Status:  "error",
		Message: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Millisecond).String(),
	})
}

// RateLimiter allows limit requests per second per client IP. Counters live
// in Redis when a client is given so every instance shares them.
func RateLimiter(client *redis.Client, limit uint) gin.HandlerFunc {
	var store ratelimit.Store
	if client != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: client,
			Rate:        time.Second,
			Limit:       limit,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Second,
			Limit: limit,
		})
	}

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})
}
