package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
)

var (
	// ErrKafkaTopicRequired is returned when the topic is empty.
	ErrKafkaTopicRequired = errors.New("messaging: kafka topic is required")
	// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
)

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	// Brokers lists Kafka broker addresses.
	Brokers []string
	// BatchTimeout bounds how long the writer waits to fill a batch. Zero
	// keeps the kafka-go default.
	BatchTimeout time.Duration
	// AllowAutoTopicCreation lets the broker create missing topics.
	AllowAutoTopicCreation bool
}

// Kafka is a messaging implementation backed by kafka-go. A single writer
// serves every topic; the topic is set per message.
type Kafka struct {
	writer *kafka.Writer

	mu     sync.Mutex
	closed bool
}

// NewKafka constructs a Kafka publisher. No connection is made until the
// first Publish.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	brokers := lo.Compact(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           cfg.BatchTimeout,
			AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
			RequiredAcks:           kafka.RequireAll,
		},
	}, nil
}

// Close flushes pending writes and closes the writer.
func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil
	}
	k.closed = true
	return k.writer.Close()
}

// Publish writes one message to a Kafka topic.
func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrKafkaTopicRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}
	if k.isClosed() {
		return PublishResult{}, io.ErrClosedPipe
	}

	kmsg := kafka.Message{
		Topic: destination,
		Key:   msg.Key,
		Value: msg.Body,
		Time:  time.Now(),
		Headers: lo.FilterMap(msg.Headers, func(h Header, _ int) (kafka.Header, bool) {
			return kafka.Header{Key: h.Key, Value: h.Value}, h.Key != ""
		}),
	}

	if err := k.writer.WriteMessages(ctx, kmsg); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: kmsg.Time}, nil
}

func (k *Kafka) isClosed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}
