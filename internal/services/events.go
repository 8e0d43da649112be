package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=events.go -destination=mock_events.go -package=services

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// EventPublisher publishes domain events to Kafka.
// A publisher without a writer only logs that the event was skipped.
type EventPublisher struct {
	writer KafkaWriter
}

// NewEventPublisher creates a new EventPublisher. writer may be nil.
func NewEventPublisher(writer KafkaWriter) *EventPublisher {
	return &EventPublisher{writer: writer}
}

// Publish writes an event of eventType. Failures are logged, never returned.
func (p *EventPublisher) Publish(ctx context.Context, eventType string, userID uuid.UUID, subjectID uuid.UUID) {
	if p == nil {
		return
	}

	event := models.Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		UserID:    userID.String(),
	}
	if subjectID != uuid.Nil {
		event.SubjectID = subjectID.String()
	}

	log := logger.FromContext(ctx)

	if p.writer == nil {
		log.Warnw("Kafka writer not configured, skipping publishing", "event_id", event.EventID, "type", eventType)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Errorw("Failed to marshal event for Kafka", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.EventID),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Errorw("Failed to publish event to Kafka", "event_id", event.EventID, "type", eventType, "error", err)
	} else {
		log.Infow("Event published to Kafka", "event_id", event.EventID, "type", eventType)
	}
}
