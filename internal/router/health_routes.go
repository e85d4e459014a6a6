package router

import "github.com/gin-gonic/gin"

func (rt *Router) registerHealthRoutes(r *gin.Engine) {
	r.GET("/health", rt.handlers.Health.Check)
}
