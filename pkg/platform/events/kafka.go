package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

var errCircuitOpen = errors.New("kafka sink circuit open")

// KafkaSink produces events as JSON records keyed by subject.
type KafkaSink struct {
	client  *kgo.Client
	topic   string
	breaker *CircuitBreaker
}

// NewKafkaSink connects a producer to brokers. The client connects lazily;
// broker problems surface on the first produce.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{
		client:  client,
		topic:   topic,
		breaker: NewCircuitBreaker(5, 30*time.Second),
	}, nil
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	if !s.breaker.Allow() {
		return errCircuitOpen
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Key()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(event.Type)},
			{Key: "participant", Value: []byte(event.Participant)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		s.breaker.RecordFailure()
		return fmt.Errorf("produce event: %w", err)
	}
	s.breaker.RecordSuccess()
	return nil
}

// Ping checks broker reachability for health reporting.
func (s *KafkaSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close flushes and closes the producer.
func (s *KafkaSink) Close() {
	s.client.Close()
}
