package middleware

import (
	"magicweekends/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// RequestLogger tags every request with an ID, echoed back in X-Request-ID,
// and stores a request-scoped zap logger under "logger" for the handlers.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > 64 {
			rid = uuid.New().String()
		}
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Set(loggerKey, utils.GetLogger().With(
			zap.String("requestID", rid),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("clientIP", c.ClientIP()),
		))
		c.Next()
	}
}
