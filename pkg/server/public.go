package server

import (
	"github.com/gin-gonic/gin"
	"github.com/messagebroker/users-api/pkg/api"
	"github.com/messagebroker/users-api/pkg/config"
	"github.com/messagebroker/users-api/pkg/middleware"
	"github.com/messagebroker/users-api/pkg/observability/logger"
)

// NewPublicServer builds the public API server: the full middleware stack
// plus the user routes.
func NewPublicServer(cfg config.HTTPConfig, handler *api.Handler, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.Recovery(log),
		middleware.Metrics(),
	)

	handler.Register(engine)

	return NewServer(Config{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, engine, log)
}
