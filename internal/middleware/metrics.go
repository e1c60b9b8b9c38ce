package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uok-ict/portal-api/internal/service"
)

// Metrics returns middleware that captures request metrics using the provided service.
// The scrape endpoint itself is left out so monitoring traffic does not skew
// the request counters.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.FullPath() == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
