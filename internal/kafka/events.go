package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/edgeblocks/edgesite/internal/domain"
)

// ChangeEventPublisher publishes committed dashboard change events to Kafka.
type ChangeEventPublisher struct {
	writer *kafka.Writer
	Topic  string
}

func NewChangeEventPublisher(brokers []string, topic string) *ChangeEventPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &ChangeEventPublisher{writer: writer, Topic: topic}
}

// Publish writes one change event, keyed by module so per-module ordering
// is preserved within a partition.
func (p *ChangeEventPublisher) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Module),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *ChangeEventPublisher) Close() error {
	return p.writer.Close()
}
