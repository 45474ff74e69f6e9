// Package events announces computed distributions to downstream
// consumers over Kafka. Publishing is best effort: a broker outage
// never fails the request that computed the distribution.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// DistributionComputed is emitted after a distribution is persisted.
type DistributionComputed struct {
	ID               uuid.UUID `json:"id"`
	Profile          string    `json:"profile"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	PartnerCount     int       `json:"partner_count"`
	ComputedAt       time.Time `json:"computed_at"`
}

// Publisher is the port the distribution service publishes through.
type Publisher interface {
	PublishDistributionComputed(ctx context.Context, event DistributionComputed) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) PublishDistributionComputed(ctx context.Context, event DistributionComputed) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ID.String()),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}

	slog.InfoContext(ctx, "Published distribution event",
		"distribution_id", event.ID,
		"topic", p.writer.Topic)

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

var _ Publisher = (*NoopPublisher)(nil)

func (NoopPublisher) PublishDistributionComputed(ctx context.Context, event DistributionComputed) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
