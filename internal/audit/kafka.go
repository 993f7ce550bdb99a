package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes audit entries to a Kafka topic for downstream
// compliance consumers. Produces are asynchronous and fire-and-forget;
// delivery failures are logged, matching the best-effort audit contract.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaSink connects a producer to the given brokers.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

// Append publishes one entry keyed by actor so per-actor ordering holds.
func (s *KafkaSink) Append(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.Actor),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("audit kafka produce failed", "action", entry.Action, "error", err)
		}
	})
	return nil
}

// ListRecent is unsupported on the Kafka sink; it exists to satisfy Store so
// the sink can participate in a FanoutStore. Reads go to the first store.
func (s *KafkaSink) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	return nil, fmt.Errorf("kafka sink is write-only")
}

// Close flushes outstanding produces and releases the client.
func (s *KafkaSink) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush kafka producer: %w", err)
	}
	s.client.Close()
	return nil
}
