package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tablebook/pkg/kafka"
	"tablebook/pkg/model"
	"tablebook/pkg/requestid"
)

const (
	TypeCreated = "reservation.created"
	TypeUpdated = "reservation.updated"
	TypeDeleted = "reservation.deleted"

	source        = "tablebook"
	schemaVersion = "1"
)

type Event struct {
	Type          string         `json:"type"`
	ReservationID int64          `json:"reservation_id"`
	Reservation   map[string]any `json:"reservation"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

func NewEvent(eventType string, reservation *model.Reservation) Event {
	return Event{
		Type:          eventType,
		ReservationID: reservation.ID,
		Reservation:   reservation.Fields(),
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher keys every event by reservation id so one reservation's history stays ordered.
type KafkaPublisher struct {
	producer producer
}

func NewKafkaPublisher(p producer) *KafkaPublisher {
	return &KafkaPublisher{producer: p}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg := kafka.NewMessage().
		WithKey(strconv.FormatInt(event.ReservationID, 10)).
		WithValue(event).
		WithEventID("").
		WithEventType(event.Type).
		WithCorrelationID(requestid.FromContext(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s for reservation %d: %w", event.Type, event.ReservationID, err)
	}
	return nil
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
