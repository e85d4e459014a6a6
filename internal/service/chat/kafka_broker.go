package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"klav_chat_server/internal/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// kafkaBroker routes broadcasts through a kafka topic, keyed by room id
// so one room's messages stay ordered on one partition.
type kafkaBroker struct {
	writer *kafka.Writer
	reader *kafka.Reader

	deliver   DeliveryFunc
	done      chan struct{}
	closeOnce sync.Once
}

func newKafkaBroker(cfg *config.BrokerConfig, deliver DeliveryFunc) (*kafkaBroker, error) {
	if err := ensureTopic(cfg); err != nil {
		return nil, err
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.HostPort),
		Topic:                  cfg.ChatTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireNone,
		AllowAutoTopicCreation: false,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.HostPort},
		Topic:          cfg.ChatTopic,
		GroupID:        "chat",
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
	return &kafkaBroker{
		writer:  writer,
		reader:  reader,
		deliver: deliver,
		done:    make(chan struct{}),
	}, nil
}

func ensureTopic(cfg *config.BrokerConfig) error {
	conn, err := kafka.Dial("tcp", cfg.HostPort)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.ChatTopic,
		NumPartitions:     cfg.Partition,
		ReplicationFactor: 1,
	})
}

func (b *kafkaBroker) Publish(ctx context.Context, req BroadcastRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.RoomID),
		Value: data,
	})
}

func (b *kafkaBroker) Start() {
	for {
		select {
		case <-b.done:
			return
		default:
		}
		msg, err := b.reader.ReadMessage(context.Background())
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			zap.L().Error("kafka read failed", zap.Error(err))
			continue
		}
		var req BroadcastRequest
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			zap.L().Error("kafka message unmarshal failed", zap.Error(err))
			continue
		}
		b.deliver(req)
	}
}

func (b *kafkaBroker) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		if werr := b.writer.Close(); werr != nil {
			err = werr
		}
		if rerr := b.reader.Close(); rerr != nil && err == nil {
			err = rerr
		}
	})
	return err
}
