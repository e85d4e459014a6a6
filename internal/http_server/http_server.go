// Package http_server builds the gin engine: middleware stack, CORS and
// route registration.
package http_server

import (
	"klav_chat_server/internal/config"
	"klav_chat_server/internal/handler"
	"klav_chat_server/internal/infrastructure/logger"
	"klav_chat_server/internal/infrastructure/middleware"
	"klav_chat_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Init assembles the engine. The caller owns the http.Server around it.
func Init(cfg *config.MainConfig, handlers *handler.Handlers) *gin.Engine {
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// Most deployments terminate TLS at the proxy; the redirect only
	// turns on when an SSL host is configured.
	if cfg.SSLHost != "" {
		engine.Use(middleware.TlsHandler(cfg.SSLHost, cfg.Port))
	}

	rt := router.NewRouter(handlers)
	rt.RegisterRoutes(engine)

	return engine
}
