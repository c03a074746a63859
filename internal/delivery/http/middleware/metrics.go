package middleware

import (
	"time"

	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/metrics"
	"github.com/gin-gonic/gin"
)

func Metrics(m *metrics.ProxyMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}
