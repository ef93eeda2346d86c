package out

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

type KafkaSink struct {
	topic string
	p     sarama.SyncProducer
}

// NewKafkaSink connects a sync producer with reliability-oriented
// defaults: acks from all replicas, idempotent, bounded retries.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	cfg := sarama.NewConfig()

	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 10
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond

	// SyncProducer must have Return.Successes=true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1 // idempotence caps in-flight at 1

	cfg.Version = sarama.V2_1_0_0

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{topic: topic, p: p}, nil
}

func (s *KafkaSink) Close() error {
	if s.p != nil {
		return s.p.Close()
	}
	return nil
}

// Emit publishes v wrapped in an Envelope. TraceEvents are keyed by
// source wallet so one wallet's traces land in partition order.
func (s *KafkaSink) Emit(ctx context.Context, typ string, v any) error {
	b, err := envelope(typ, v)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Value: sarama.ByteEncoder(b),
	}
	if ev, ok := v.(TraceEvent); ok && ev.Source != "" {
		msg.Key = sarama.StringEncoder(ev.Source)
	}

	// SyncProducer doesn't take ctx; check before sending.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if _, _, err := s.p.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka emit: %w", err)
	}
	return nil
}
