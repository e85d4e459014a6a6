// Package router registers the HTTP routes, grouped by concern.
package router

import (
	"klav_chat_server/internal/handler"

	"github.com/gin-gonic/gin"
)

// Router binds the handler aggregate to routes.
type Router struct {
	handlers *handler.Handlers
}

func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes registers every route group on the engine.
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	rt.registerAuthRoutes(r)
	rt.registerUserRoutes(r)
	rt.registerWebSocketRoutes(r)
	rt.registerHealthRoutes(r)
}
