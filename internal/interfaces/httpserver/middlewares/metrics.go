package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pixelforge-ai/generation-api/internal/infrastructure/metrics"
)

// Metrics records request count and latency per route. Core probe routes
// are skipped so scrapers and liveness checks do not drown the series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return
		}

		status := strconv.Itoa(c.Writer.Status())
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = path
		}

		metrics.RecordHTTPRequest(c.Request.Method, endpoint, status, time.Since(start))
	}
}
