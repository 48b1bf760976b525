package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/messagebroker/users-api/pkg/observability/logger"
)

// Logging logs one line per completed request: method, path, status,
// duration, remote address, and the request ID for correlation.
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", GetRequestID(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.Request.RemoteAddr,
		}

		if status >= 500 {
			log.Error("request completed", args...)
			return
		}
		log.Info("request completed", args...)
	}
}
