package handler

import (
	"net/http"
	"time"

	"klav_chat_server/internal/service/chat"
	"klav_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set the Authorization header on websocket dials,
	// so the token may arrive as a query parameter instead. Origin
	// checking is left to the deployment's proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WsHandler upgrades GET /ws. The access token comes from the
// Authorization header or the "token" query parameter; a missing or bad
// token closes the socket with policy violation (1008) before any state
// is touched.
type WsHandler struct {
	chatSrv *chat.Server
}

func NewWsHandler(chatSrv *chat.Server) *WsHandler {
	return &WsHandler{chatSrv: chatSrv}
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			return auth[len(prefix):]
		}
		return auth
	}
	return c.Query("token")
}

// Serve handles GET /ws.
func (h *WsHandler) Serve(c *gin.Context) {
	token := extractToken(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("websocket upgrade failed", zap.Error(err))
		return
	}

	if token == "" {
		closeUnauthorized(conn)
		return
	}
	claims, err := jwt.ParseToken(token)
	if err != nil || claims.Subject != "access_token" {
		closeUnauthorized(conn)
		return
	}

	h.chatSrv.HandleConnection(claims.Username, conn)
}

func closeUnauthorized(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
		time.Now().Add(time.Second))
	_ = conn.Close()
}
