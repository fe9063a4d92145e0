package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/BaSui01/retainflow/config"
	"github.com/BaSui01/retainflow/types"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes entries as JSON keyed by entry id.
type KafkaSink struct {
	w messageWriter
}

// NewKafkaSink creates a writer for topic.
func NewKafkaSink(cfg config.KafkaConfig, topic string) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic not configured")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
	}
	if cfg.BatchTimeout > 0 {
		w.BatchTimeout = cfg.BatchTimeout
	} else {
		w.BatchTimeout = 10 * time.Millisecond
	}
	return &KafkaSink{w: w}, nil
}

// Append implements Sink.
func (s *KafkaSink) Append(ctx context.Context, e types.AuditEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.ID),
		Value: data,
		Time:  e.Timestamp,
	}
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish audit entry: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.w.Close()
}
