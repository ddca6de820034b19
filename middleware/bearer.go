package middleware

import (
	"errors"
	"net/http"
	"time"

	"magicweekends/utils"

	"github.com/gin-gonic/gin"
)

// ForwardBearerToken lets anonymous requests through and attaches a valid
// storefront token to the request context so upstream calls can forward it.
// Malformed or expired tokens are rejected rather than sent upstream.
func ForwardBearerToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := utils.BearerToken(c.GetHeader("Authorization"))
		if errors.Is(err, utils.ErrMissingToken) {
			c.Next()
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if err := utils.CheckForwardedToken(tok, secret, time.Now()); err != nil {
			msg := "Invalid token"
			if errors.Is(err, utils.ErrTokenExpired) {
				msg = "Session expired. Please sign in again."
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Request = c.Request.WithContext(utils.WithBearerToken(c.Request.Context(), tok))
		c.Next()
	}
}
