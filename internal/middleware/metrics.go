package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/impact-track/impact-api/internal/service"
)

// Metrics records per-request duration and count labelled by route template,
// so /imports/:id polling aggregates under one series instead of one per job.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "" {
			// Unrouted requests (404s) would explode label cardinality if
			// recorded by raw URL.
			path = "unmatched"
		}
		if path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
