// Package kafka publishes and consumes alert events on a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"shopfloor/internal/config"
	"shopfloor/internal/logger"
	"shopfloor/internal/metrics"
	"shopfloor/internal/models"
)

// Producer errors
var (
	ErrProducerClosed  = errors.New("producer is closed")
	ErrNoBrokers       = errors.New("at least one broker is required")
	ErrNoTopic         = errors.New("topic is required")
	ErrSerializeFailed = errors.New("failed to serialize message")
)

// Producer writes alert events through a small pool of kafka writers,
// retrying with exponential backoff.
type Producer struct {
	cfg     config.ProducerConfig
	topic   string
	writers []*kafka.Writer
	pool    chan *kafka.Writer
	closed  atomic.Bool

	messagesSent   atomic.Uint64
	messagesFailed atomic.Uint64
	bytesWritten   atomic.Uint64
}

// NewProducer creates a producer for the configured brokers and topic.
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.Topic == "" {
		return nil, ErrNoTopic
	}

	pc := cfg.Producer
	if pc.PoolSize <= 0 {
		pc.PoolSize = 2
	}
	if pc.MaxRetries < 0 {
		pc.MaxRetries = 0
	}

	p := &Producer{
		cfg:     pc,
		topic:   cfg.Topic,
		writers: make([]*kafka.Writer, pc.PoolSize),
		pool:    make(chan *kafka.Writer, pc.PoolSize),
	}

	compression := getCompression(pc.Compression)
	for i := 0; i < pc.PoolSize; i++ {
		w := &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{}, // events of one entity share a partition
			BatchSize:    pc.BatchSize,
			BatchTimeout: pc.BatchTimeout,
			WriteTimeout: pc.WriteTimeout,
			RequiredAcks: kafka.RequiredAcks(pc.RequiredAcks),
			Compression:  compression,
			MaxAttempts:  1, // retries are ours
		}
		p.writers[i] = w
		p.pool <- w
	}

	return p, nil
}

// getCompression maps a config name to a kafka codec.
func getCompression(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Gzip
	case "snappy":
		return compress.Snappy
	case "lz4":
		return compress.Lz4
	case "zstd":
		return compress.Zstd
	default:
		return compress.None
	}
}

// encode turns an event into a kafka message keyed by the related entity.
func encode(event *models.AlertEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("%w: %v", ErrSerializeFailed, err)
	}

	var headers []kafka.Header
	if a := event.Alert; a != nil {
		headers = []kafka.Header{
			{Key: "alert_id", Value: []byte(a.ID)},
			{Key: "alert_type", Value: []byte(a.Type)},
			{Key: "related_id", Value: []byte(a.RelatedID)},
		}
	}
	headers = append(headers, kafka.Header{Key: "node", Value: []byte(event.Node)})

	return kafka.Message{
		Key:     []byte(event.PartitionKey),
		Value:   data,
		Headers: headers,
		Time:    event.PublishedAt,
	}, nil
}

// Publish sends one event.
func (p *Producer) Publish(ctx context.Context, event *models.AlertEvent) error {
	return p.PublishBatch(ctx, []*models.AlertEvent{event})
}

// PublishBatch sends events in one write. Events that fail to serialize
// are logged and skipped.
func (p *Producer) PublishBatch(ctx context.Context, events []*models.AlertEvent) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(events) == 0 {
		return nil
	}

	log := logger.WithComponent("kafka_producer")
	start := time.Now()

	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := encode(event)
		if err != nil {
			log.Error().Err(err).Msg("dropping unserializable alert event")
			p.messagesFailed.Add(1)
			metrics.KafkaPublishTotal.WithLabelValues("failed").Inc()
			continue
		}
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		return nil
	}

	var writer *kafka.Writer
	select {
	case writer = <-p.pool:
		defer func() { p.pool <- writer }()
	case <-ctx.Done():
		p.messagesFailed.Add(uint64(len(messages)))
		return ctx.Err()
	}

	err := p.writeWithRetry(ctx, writer, messages)
	duration := time.Since(start)
	metrics.KafkaPublishDuration.Observe(duration.Seconds())

	if err != nil {
		log.Error().
			Err(err).
			Int("batch_size", len(messages)).
			Dur("duration", duration).
			Msg("failed to publish alert events")
		p.messagesFailed.Add(uint64(len(messages)))
		metrics.KafkaPublishTotal.WithLabelValues("failed").Add(float64(len(messages)))
		return err
	}

	var bytesTotal uint64
	for _, msg := range messages {
		bytesTotal += uint64(len(msg.Value))
	}
	p.messagesSent.Add(uint64(len(messages)))
	p.bytesWritten.Add(bytesTotal)
	metrics.KafkaPublishTotal.WithLabelValues("success").Add(float64(len(messages)))
	metrics.KafkaBytesWritten.Add(float64(bytesTotal))

	log.Debug().
		Int("batch_size", len(messages)).
		Dur("duration", duration).
		Msg("alert events published")
	return nil
}

func (p *Producer) writeWithRetry(ctx context.Context, writer *kafka.Writer, messages []kafka.Message) error {
	log := logger.WithComponent("kafka_producer")
	var lastErr error
	backoff := p.cfg.RetryBackoff

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.KafkaPublishRetries.Inc()
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := writer.WriteMessages(ctx, messages...)
		if err == nil {
			return nil
		}
		lastErr = err

		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("batch_size", len(messages)).
			Msg("kafka write attempt failed")

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", p.cfg.MaxRetries+1, lastErr)
}

// Close closes all writers. It is safe to call more than once.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	var errs []error
	for _, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns producer statistics
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		MessagesSent:   p.messagesSent.Load(),
		MessagesFailed: p.messagesFailed.Load(),
		BytesWritten:   p.bytesWritten.Load(),
	}
}

// ProducerStats holds producer counters
type ProducerStats struct {
	MessagesSent   uint64 `json:"messages_sent"`
	MessagesFailed uint64 `json:"messages_failed"`
	BytesWritten   uint64 `json:"bytes_written"`
}
