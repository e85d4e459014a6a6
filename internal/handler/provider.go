package handler

import (
	"klav_chat_server/internal/dao"
	"klav_chat_server/internal/service/auth"
	"klav_chat_server/internal/service/chat"
	"klav_chat_server/internal/service/user"
)

// Handlers aggregates the handler set; the router wires it to routes.
type Handlers struct {
	Auth   *AuthHandler
	User   *UserHandler
	Ws     *WsHandler
	Health *HealthHandler
}

// NewHandlers builds every handler from the service layer.
func NewHandlers(authSvc *auth.Service, userSvc *user.Service, chatSrv *chat.Server, repos *dao.Repositories) *Handlers {
	return &Handlers{
		Auth:   NewAuthHandler(authSvc),
		User:   NewUserHandler(userSvc),
		Ws:     NewWsHandler(chatSrv),
		Health: NewHealthHandler(repos),
	}
}
