package handler

import (
	"net/http"

	"klav_chat_server/internal/dao"

	"github.com/gin-gonic/gin"
)

// HealthHandler answers liveness probes with storage reachability.
type HealthHandler struct {
	repos *dao.Repositories
}

func NewHealthHandler(repos *dao.Repositories) *HealthHandler {
	return &HealthHandler{repos: repos}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	if err := h.repos.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
