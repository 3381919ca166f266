package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	grpcmiddleware "docbot-auth-service/internal/adapter/grpc/middleware"
)

// RateLimiter returns a Gin middleware backed by the same Redis token
// bucket as the gRPC interceptor. Buckets are per method, path and client IP.
func RateLimiter(limiter *grpcmiddleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		key := fmt.Sprintf("http:%s:%s:%s", c.Request.Method, c.FullPath(), c.ClientIP())
		if !limiter.Allow(c.Request.Context(), key) {
			cfg := limiter.Config()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("Rate limit exceeded: %.2f requests/second (burst capacity: %d)",
					cfg.RequestsPerSecond, cfg.BurstCapacity),
			})
			return
		}

		c.Next()
	}
}
