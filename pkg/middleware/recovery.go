package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/messagebroker/users-api/pkg/observability/logger"
)

// Recovery catches handler panics, logs them with a stack trace, and
// responds 500 when nothing has been written yet.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestID := GetRequestID(c.Request.Context())
				log.Error("panic recovered",
					"request_id", requestID,
					"panic", r,
					"stack", string(debug.Stack()),
				)

				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"error":      "internal_server_error",
						"message":    "an unexpected error occurred",
						"request_id": requestID,
					})
					return
				}
				c.Abort()
			}
		}()

		c.Next()
	}
}
