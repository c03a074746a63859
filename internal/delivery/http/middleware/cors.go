package middleware

import (
	"net/http"
	"strings"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/gin-gonic/gin"
)

var (
	corsAllowHeaders  = strings.Join([]string{"Content-Type", domain.CartTokenHeader, domain.NonceHeader, domain.LegacyNonceHeader, domain.RequestIDHeader}, ", ")
	corsExposeHeaders = strings.Join([]string{domain.CartTokenHeader, domain.NonceHeader, domain.RequestIDHeader, RatesSourceHeader}, ", ")
)

const RatesSourceHeader = "X-Rates-Source"

// CORS allows the storefront origins. An empty list allows any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(origin), "/")] = struct{}{}
	}
	_, wildcard := allowed["*"]
	allowAny := len(allowed) == 0 || wildcard

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if _, ok := allowed[origin]; !ok && !allowAny {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
		c.Header("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
