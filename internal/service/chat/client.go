package chat

import (
	"encoding/json"
	"sync"
	"time"

	"klav_chat_server/pkg/constants"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one websocket connection of one user. A user may hold any
// number of clients at once; every outbound event goes through the
// buffered send channel so one slow socket never blocks the rest.
type Client struct {
	Username string

	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(username string, conn *websocket.Conn) *Client {
	return &Client{
		Username: username,
		conn:     conn,
		send:     make(chan []byte, constants.CHANNEL_SIZE),
		done:     make(chan struct{}),
	}
}

// Enqueue serializes the event and queues it for delivery. It never
// blocks: when the send buffer is full the client is closed, on the
// assumption the peer stopped reading.
func (c *Client) Enqueue(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("marshal outbound event failed", zap.Error(err))
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		zap.L().Warn("send buffer full, dropping client",
			zap.String("username", c.Username))
		c.Close()
	}
}

// Close shuts the connection down. Safe to call more than once and from
// any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// Done is closed when the client has shut down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// writePump owns all writes to the socket: queued events plus keepalive
// pings. It exits when the client closes or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
