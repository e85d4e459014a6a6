package chat

import (
	"context"

	"klav_chat_server/internal/config"
	"klav_chat_server/pkg/errorx"
)

// BroadcastRequest is the fan-in unit carried by the broker: one room
// message already logged and waiting for delivery to live members.
type BroadcastRequest struct {
	RoomID       string `json:"room_id"`
	From         string `json:"from"`
	FromNickname string `json:"from_nickname"`
	Text         string `json:"text"`
}

// MessageBroker decouples message intake from delivery. The default
// "channel" mode runs in-process; "kafka" mode routes broadcasts through
// a topic so intake survives delivery backpressure.
type MessageBroker interface {
	Publish(ctx context.Context, req BroadcastRequest) error
	// Start runs the delivery loop until Close. Blocks; run in a goroutine.
	Start()
	Close() error
}

// DeliveryFunc receives each consumed broadcast.
type DeliveryFunc func(req BroadcastRequest)

// NewBroker builds the broker named by cfg.MessageMode.
func NewBroker(cfg *config.BrokerConfig, deliver DeliveryFunc) (MessageBroker, error) {
	switch cfg.MessageMode {
	case "", "channel":
		return newChannelBroker(deliver), nil
	case "kafka":
		return newKafkaBroker(cfg, deliver)
	default:
		return nil, errorx.Newf(errorx.CodeInvalidParam, "unknown message mode %q", cfg.MessageMode)
	}
}
