// Package outbox implements the transactional outbox: side effects are
// appended in the same transaction as the aggregates they describe and a relay
// publishes them once committed.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topics the workflow publishes to.
const (
	TopicNotification = "notification"
	TopicHistory      = "history"
)

// Entry is one pending message.
type Entry struct {
	ID            uuid.UUID  `json:"id"`
	Topic         string     `json:"topic"`
	AggregateType string     `json:"aggregate_type"`
	AggregateID   string     `json:"aggregate_id"`
	EventType     string     `json:"event_type"`
	Payload       []byte     `json:"payload"`
	CreatedAt     time.Time  `json:"created_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	Attempts      int        `json:"attempts"`
}

// NewEntry marshals payload into an entry keyed by the aggregate.
func NewEntry(topic, aggregateType, aggregateID, eventType string, payload any, now time.Time) (Entry, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Entry{
		ID:            uuid.New(),
		Topic:         topic,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       b,
		CreatedAt:     now,
	}, nil
}

// Appender queues entries, joining the caller's transaction when there is one.
type Appender interface {
	Append(ctx context.Context, entries ...Entry) error
}

// Store is read by the relay.
type Store interface {
	Appender
	// Pending returns up to limit unpublished entries, oldest first.
	Pending(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, ids []uuid.UUID) error
}

// Publisher delivers entries to the broker.
type Publisher interface {
	Publish(ctx context.Context, entries []Entry) error
}
