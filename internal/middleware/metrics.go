package middleware

import (
	"strconv"
	"time"

	"slink-api/internal/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request counts, latency, and in-flight gauge for
// every request.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		// Use the route pattern rather than the raw path so short codes
		// don't explode label cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordHTTPMetrics(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
