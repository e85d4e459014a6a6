package handler

import (
	"klav_chat_server/internal/dto/request"
	"klav_chat_server/internal/infrastructure/middleware"
	"klav_chat_server/internal/service/user"
	"klav_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the authenticated profile endpoints.
type UserHandler struct {
	userSvc *user.Service
}

func NewUserHandler(userSvc *user.Service) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// currentUser reads the handle the jwt middleware stored.
func currentUser(c *gin.Context) (string, bool) {
	username := c.GetString(middleware.ContextUserKey)
	return username, username != ""
}

// Me returns the caller's profile.
// GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		HandleError(c, errorx.ErrUnauthorized)
		return
	}
	data, err := h.userSvc.GetUserInfo(username)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateNickname changes the caller's display name.
// PUT /api/me/nickname
func (h *UserHandler) UpdateNickname(c *gin.Context) {
	username, ok := currentUser(c)
	if !ok {
		HandleError(c, errorx.ErrUnauthorized)
		return
	}
	var req request.UpdateNicknameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.userSvc.UpdateNickname(username, req.Nickname); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
