package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"parcours/internal/ports"
	id "parcours/pkg/domain"
	"parcours/pkg/platform/outbox"
	"parcours/pkg/platform/outbox/kafka"
)

// Store keeps the projected timeline. Append ignores an entry id it has
// already seen.
type Store interface {
	Append(ctx context.Context, entryID uuid.UUID, entry ports.HistoryEntry) error
	Timeline(ctx context.Context, doctorateID id.DoctorateID, tags ...string) ([]ports.HistoryEntry, error)
}

// Projection writes published history entries to a Store. It consumes them
// from Kafka, or straight from the outbox relay when no broker is configured.
type Projection struct {
	store  Store
	logger *slog.Logger
}

func NewProjection(store Store, logger *slog.Logger) *Projection {
	return &Projection{store: store, logger: logger}
}

var (
	_ kafka.Handler    = (*Projection)(nil)
	_ outbox.Publisher = (*Projection)(nil)
)

// Handle processes one history record. Malformed records are logged and
// committed so they never block the partition.
func (p *Projection) Handle(ctx context.Context, msg *kafka.Message) error {
	entryID, err := uuid.Parse(msg.Headers["entry_id"])
	if err != nil {
		p.logger.ErrorContext(ctx, "history record without entry id",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}
	return p.apply(ctx, entryID, msg.Value)
}

// Publish projects the history entries of a relay batch. Other topics have
// no consumer in process and are dropped.
func (p *Projection) Publish(ctx context.Context, entries []outbox.Entry) error {
	dropped := 0
	for _, e := range entries {
		if e.Topic != outbox.TopicHistory {
			dropped++
			continue
		}
		if err := p.apply(ctx, e.ID, e.Payload); err != nil {
			return err
		}
	}
	if dropped > 0 {
		p.logger.DebugContext(ctx, "outbox entries without local consumer dropped", "count", dropped)
	}
	return nil
}

func (p *Projection) apply(ctx context.Context, entryID uuid.UUID, payload []byte) error {
	var entry ports.HistoryEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		p.logger.ErrorContext(ctx, "failed to unmarshal history entry",
			"entry_id", entryID,
			"error", err,
		)
		return nil
	}
	if entry.DoctorateID.IsNil() {
		p.logger.ErrorContext(ctx, "history entry missing doctorate", "entry_id", entryID)
		return nil
	}
	if err := p.store.Append(ctx, entryID, entry); err != nil {
		return fmt.Errorf("store history entry: %w", err)
	}
	p.logger.DebugContext(ctx, "history entry projected",
		"entry_id", entryID,
		"doctorate_id", entry.DoctorateID.String(),
	)
	return nil
}
