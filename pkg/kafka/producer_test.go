package kafka

import (
	"context"
	"errors"
	"testing"

	kafka_config "tablebook/pkg/kafka/config"
	"tablebook/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewProducer_Validation(t *testing.T) {
	log := logger.Discard()
	if _, err := NewProducer(nil, "t", "", log); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewProducer(&kafka_config.Config{}, "t", "", log); err == nil {
		t.Error("expected error without brokers")
	}
	if _, err := NewProducer(&kafka_config.Config{Brokers: []string{"localhost:9092"}}, "", "", log); err == nil {
		t.Error("expected error without topic")
	}

	p, err := NewProducer(&kafka_config.Config{Brokers: []string{"localhost:9092"}, ProducerMaxAttempts: 1}, "reservations", "reservations.dlq", log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.dlqWriter == nil {
		t.Error("expected DLQ writer when a DLQ topic is set")
	}
	_ = p.Close()
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "reservations")

	var seen []string
	p.Use(func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error {
		seen = append(seen, msg.Topic)
		return next(ctx, msg)
	})

	msg := NewMessage().WithKey("7").WithValue(map[string]int{"id": 7}).WithEventType("reservation.created").Build()
	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(w.written) != 1 || string(w.written[0].Key) != "7" {
		t.Fatalf("unexpected writes %+v", w.written)
	}
	if len(seen) != 1 || seen[0] != "reservations" {
		t.Errorf("middleware should see the default topic, got %v", seen)
	}

	headers := map[string]string{}
	for _, h := range w.written[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers[HeaderEventType] != "reservation.created" || headers[HeaderEventID] == "" {
		t.Errorf("unexpected headers %v", headers)
	}
}

func TestPublish_Rejects(t *testing.T) {
	p := newProducer(&fakeWriter{}, "reservations")

	if err := p.Publish(context.Background(), NewMessage().WithValue("x").Build()); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), NewMessage().WithKey("1").Build()); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}

	_ = p.Close()
	if err := p.Publish(context.Background(), NewMessage().WithKey("1").WithValue("x").Build()); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
}

func TestPublish_DeadLetter(t *testing.T) {
	cause := errors.New("message too large")
	dlq := &fakeWriter{}
	p := newProducer(&fakeWriter{err: cause}, "reservations")
	p.dlqWriter = dlq

	msg := NewMessage().WithKey("7").WithValue("x").Build()
	err := p.Publish(context.Background(), msg)
	if !errors.Is(err, cause) {
		t.Errorf("expected original error, got %v", err)
	}
	if len(dlq.written) != 1 {
		t.Fatalf("expected message routed to DLQ, got %d", len(dlq.written))
	}
	if _, ok := msg.Headers[HeaderDLQError]; ok {
		t.Error("caller's headers must not be modified")
	}

	_ = p.Close()
	if !dlq.closed {
		t.Error("expected DLQ writer closed")
	}
}
