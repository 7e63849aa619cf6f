package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"shopfloor/internal/config"
	"shopfloor/internal/logger"
	"shopfloor/internal/models"
)

// Handler processes one decoded alert event.
type Handler func(ctx context.Context, event *models.AlertEvent) error

// Consumer reads alert events as a member of a consumer group.
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer creates a consumer on the configured topic and group.
func NewConsumer(cfg config.KafkaConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.Topic == "" {
		return nil, ErrNoTopic
	}

	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}, nil
}

// Run feeds events to handle until ctx is done. Messages that do not decode
// are logged and committed; a handler error stops the consumer without
// committing the message.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	log := logger.WithComponent("kafka_consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		event, err := Decode(msg.Value)
		if err != nil {
			log.Warn().
				Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("skipping undecodable message")
		} else if err := handle(ctx, event); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("committing offset %d: %w", msg.Offset, err)
		}
	}
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Decode parses a message value into an alert event.
func Decode(data []byte) (*models.AlertEvent, error) {
	var event models.AlertEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if event.Alert == nil {
		return nil, errors.New("event has no alert")
	}
	return &event, nil
}
