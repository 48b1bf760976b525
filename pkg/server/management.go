package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/messagebroker/users-api/pkg/config"
	"github.com/messagebroker/users-api/pkg/health"
	"github.com/messagebroker/users-api/pkg/middleware"
	"github.com/messagebroker/users-api/pkg/observability/logger"
	"github.com/messagebroker/users-api/pkg/observability/metrics"
)

// NewManagementServer builds the management server serving /health, /ready,
// and /metrics on its own port. /health is a liveness probe and always
// returns 200; /ready runs the registered dependency checks and returns 503
// when any fails.
func NewManagementServer(
	cfg config.ManagementConfig,
	log logger.Logger,
	healthRegistry *health.Registry,
	metricsRegistry *metrics.Registry,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/ready", func(c *gin.Context) {
		result := healthRegistry.Check(c.Request.Context())
		status := http.StatusOK
		if !result.IsHealthy() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	})

	engine.GET("/metrics", gin.WrapH(metricsRegistry.Handler()))

	return NewServer(Config{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}, engine, log)
}
