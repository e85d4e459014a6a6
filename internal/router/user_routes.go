package router

import (
	"klav_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// registerUserRoutes mounts the authenticated profile endpoints.
func (rt *Router) registerUserRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		api.GET("/me", rt.handlers.User.Me)
		api.PUT("/me/nickname", rt.handlers.User.UpdateNickname)
	}
}
