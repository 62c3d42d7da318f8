// Package kafka publishes retention case events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const batchTimeout = 10 * time.Millisecond

// Producer sends case events to Kafka. Writes are asynchronous; Publish
// never waits on the broker.
type Producer struct {
	casesWriter *kafka.Writer
	logger      *zap.Logger
}

// NewProducer creates a new Kafka producer for the cases topic.
func NewProducer(brokers []string, casesTopic string, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Producer{logger: logger}
	p.casesWriter = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  casesTopic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		Async:                  true,
		Completion:             p.completion,
		AllowAutoTopicCreation: true,
	}
	return p
}

// Publish queues value as JSON keyed by key. Messages sharing a key land on
// the same partition, preserving per-case ordering. Delivery failures are
// reported through the logger.
func (p *Producer) Publish(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return p.casesWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
}

func (p *Producer) completion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	keys := make([]string, 0, len(messages))
	for _, m := range messages {
		keys = append(keys, string(m.Key))
	}
	p.logger.Warn("case events not delivered to kafka",
		zap.String("topic", p.casesWriter.Topic),
		zap.Strings("case_ids", keys),
		zap.Error(err))
}

// Close flushes pending messages and closes the Kafka writer.
func (p *Producer) Close() error {
	return p.casesWriter.Close()
}
