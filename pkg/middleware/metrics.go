package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/messagebroker/users-api/pkg/observability/metrics"
)

// Metrics records the request duration histogram, the request counter, and
// the in-flight gauge for every request.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncrementInFlight()
		defer metrics.DecrementInFlight()

		start := time.Now()
		c.Next()

		metrics.RecordHTTPMetrics(
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
