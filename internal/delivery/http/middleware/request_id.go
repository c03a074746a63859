package middleware

import (
	"fmt"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/jaevor/go-nanoid"
)

const requestIDKey = "request_id"

// RequestID keeps an incoming X-Request-ID or generates one.
func RequestID() (gin.HandlerFunc, error) {
	idGenerator, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to init request id generator: %w", err)
	}

	return func(c *gin.Context) {
		id := c.GetHeader(domain.RequestIDHeader)
		if id == "" {
			id = idGenerator()
		}
		c.Set(requestIDKey, id)
		c.Header(domain.RequestIDHeader, id)
		c.Request = c.Request.WithContext(domain.WithRequestID(c.Request.Context(), id))
		c.Next()
	}, nil
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
