package kafka

import (
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewProducer_WritesAsynchronously(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:9092"}, "retention-cases", nil)

	w := p.casesWriter
	assert.True(t, w.Async)
	assert.LessOrEqual(t, w.BatchTimeout, batchTimeout)
	assert.NotNil(t, w.Completion)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Equal(t, "retention-cases", w.Topic)
}

func TestProducer_CompletionLogsFailedDelivery(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewProducer([]string{"127.0.0.1:9092"}, "retention-cases", zap.New(core))

	p.completion([]kafka.Message{{Key: []byte("7")}}, nil)
	assert.Zero(t, logs.Len())

	p.completion([]kafka.Message{{Key: []byte("7")}, {Key: []byte("8")}}, errors.New("broker unreachable"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "case events not delivered to kafka", entry.Message)
	assert.Equal(t, []any{"7", "8"}, entry.ContextMap()["case_ids"])
}
