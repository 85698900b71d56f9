package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Publisher forwards recorded log entries to an external stream
type Publisher interface {
	Publish(ctx context.Context, entry *Log) error
	Close() error
}

// KafkaPublisher writes entries as JSON keyed by broker id
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates an async writer for topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
			Async:    true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, entry *Log) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.BrokerID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(entry.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish log: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards entries
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, entry *Log) error { return nil }
func (NopPublisher) Close() error                                  { return nil }
