package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docbot-auth-service/pkg/logger"
)

// RequestID reuses an incoming X-Request-ID or generates one, echoes it
// back and stores it on the request context for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(logger.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header(logger.RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
