package handlers

import (
	"magicweekends/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger returns the request-scoped logger set by middleware.RequestLogger,
// or the global one when the middleware is not installed.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

// logger prefers the request-scoped logger over the handler's own.
func (h *BookingHandler) logger(c *gin.Context) *zap.Logger {
	if _, ok := c.Get("logger"); ok {
		return getLogger(c)
	}
	if h.Logger != nil {
		return h.Logger
	}
	return utils.GetLogger()
}
