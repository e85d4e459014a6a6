package router

import "github.com/gin-gonic/gin"

// registerAuthRoutes mounts the public account endpoints.
func (rt *Router) registerAuthRoutes(r *gin.Engine) {
	r.POST("/register", rt.handlers.Auth.Register)
	r.POST("/login", rt.handlers.Auth.Login)
	r.POST("/auth/refresh", rt.handlers.Auth.Refresh)
}
