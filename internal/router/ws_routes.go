package router

import "github.com/gin-gonic/gin"

// registerWebSocketRoutes mounts the chat upgrade endpoint. Token
// verification happens inside the handler so a bad token closes the
// socket with policy violation instead of an HTTP error.
func (rt *Router) registerWebSocketRoutes(r *gin.Engine) {
	r.GET("/ws", rt.handlers.Ws.Serve)
}
