package chat

import (
	"context"
	"sync"

	"klav_chat_server/pkg/constants"
	"klav_chat_server/pkg/errorx"
)

// channelBroker is the in-process broker: a buffered channel between
// intake and the delivery loop.
type channelBroker struct {
	deliver   DeliveryFunc
	queue     chan BroadcastRequest
	done      chan struct{}
	closeOnce sync.Once
}

func newChannelBroker(deliver DeliveryFunc) *channelBroker {
	return &channelBroker{
		deliver: deliver,
		queue:   make(chan BroadcastRequest, constants.CHANNEL_SIZE),
		done:    make(chan struct{}),
	}
}

func (b *channelBroker) Publish(ctx context.Context, req BroadcastRequest) error {
	select {
	case <-b.done:
		return errorx.New(errorx.CodeServerBusy, "broker closed")
	case <-ctx.Done():
		return ctx.Err()
	case b.queue <- req:
		return nil
	}
}

func (b *channelBroker) Start() {
	for {
		select {
		case <-b.done:
			return
		case req := <-b.queue:
			b.deliver(req)
		}
	}
}

func (b *channelBroker) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}
