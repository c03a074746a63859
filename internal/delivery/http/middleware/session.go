package middleware

import (
	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/gin-gonic/gin"
)

// Session moves the client's cart token and nonce into the request context.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := c.GetHeader(domain.NonceHeader)
		if nonce == "" {
			nonce = c.GetHeader(domain.LegacyNonceHeader)
		}
		session := domain.Session{
			CartToken: c.GetHeader(domain.CartTokenHeader),
			Nonce:     nonce,
		}
		c.Request = c.Request.WithContext(domain.WithSession(c.Request.Context(), session))
		c.Next()
	}
}
