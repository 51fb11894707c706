package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type EventHandler func(ctx context.Context, event repository.ContainerEvent) error

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

func NewReader(cfg ConsumerConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
}

// Consumer decodes container events and hands them to a handler. Messages that
// cannot be decoded are logged and skipped.
type Consumer struct {
	reader     MessageReader
	handler    EventHandler
	logger     *zap.Logger
	retryDelay time.Duration
}

func NewConsumer(reader MessageReader, handler EventHandler, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		reader:     reader,
		handler:    handler,
		logger:     logger,
		retryDelay: 5 * time.Second,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("failed to close kafka reader", zap.Error(err))
		}
	}()

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("failed to read message", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}

		var event repository.ContainerEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			c.logger.Warn("skipping undecodable message",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
			continue
		}

		if err := c.handler(ctx, event); err != nil {
			c.logger.Error("event handler failed",
				zap.String("container_id", event.ContainerID),
				zap.String("action", event.Action),
				zap.Error(err))
		}
	}
}

// LogEvents returns a handler that writes each event to logger.
func LogEvents(logger *zap.Logger) EventHandler {
	return func(_ context.Context, e repository.ContainerEvent) error {
		logger.Info("container event",
			zap.String("container_id", e.ContainerID),
			zap.String("actor", e.Actor),
			zap.String("action", e.Action),
			zap.String("details", e.Details),
			zap.String("overall_status", e.OverallStatus),
			zap.Time("occurred_at", e.OccurredAt))
		return nil
	}
}
