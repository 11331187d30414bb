package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KirillBodin/backend-VideoSDK/config"
)

const (
	loginWindow      = time.Minute
	loginMaxAttempts = 10
)

// LoginRateLimiter bounds login attempts per client IP over a fixed window.
// Without Redis the limiter is a no-op; login still works, just unthrottled.
func LoginRateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.RDB == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("login_attempts:%s", c.ClientIP())
		count, err := config.RDB.Incr(config.Ctx, key).Result()
		if err != nil {
			slog.Error("Rate limiter INCR failed", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			config.RDB.Expire(config.Ctx, key, loginWindow)
		}

		if count > loginMaxAttempts {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts, try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}
