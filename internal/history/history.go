// Package history records the timeline of a doctorate.
package history

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"parcours/internal/ports"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/outbox"
)

const (
	eventRecorded      = "history_recorded"
	aggregateDoctorate = "doctorate"
)

// Outbox appends entries to the history topic of the outbox, inside the
// caller's transaction when there is one.
type Outbox struct {
	out outbox.Appender
}

func NewOutbox(out outbox.Appender) *Outbox {
	return &Outbox{out: out}
}

var _ ports.History = (*Outbox)(nil)

func (h *Outbox) Record(ctx context.Context, entry ports.HistoryEntry) error {
	if entry.DoctorateID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "history entry requires a doctorate")
	}
	e, err := outbox.NewEntry(outbox.TopicHistory, aggregateDoctorate, entry.DoctorateID.String(), eventRecorded, entry, entry.At)
	if err != nil {
		return err
	}
	return h.out.Append(ctx, e)
}

// Memory keeps entries in process, grouped by doctorate.
type Memory struct {
	mu      sync.RWMutex
	entries map[id.DoctorateID][]ports.HistoryEntry
	seen    map[uuid.UUID]bool
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[id.DoctorateID][]ports.HistoryEntry),
		seen:    make(map[uuid.UUID]bool),
	}
}

var _ ports.History = (*Memory)(nil)

func (h *Memory) Record(_ context.Context, entry ports.HistoryEntry) error {
	if entry.DoctorateID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "history entry requires a doctorate")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	entry.Tags = slices.Clone(entry.Tags)
	h.entries[entry.DoctorateID] = append(h.entries[entry.DoctorateID], entry)
	return nil
}

// Append records entry once per entryID.
func (h *Memory) Append(ctx context.Context, entryID uuid.UUID, entry ports.HistoryEntry) error {
	h.mu.Lock()
	if h.seen[entryID] {
		h.mu.Unlock()
		return nil
	}
	h.seen[entryID] = true
	h.mu.Unlock()
	return h.Record(ctx, entry)
}

func (h *Memory) Timeline(_ context.Context, doctorateID id.DoctorateID, tags ...string) ([]ports.HistoryEntry, error) {
	return h.List(doctorateID, tags...), nil
}

// List returns the entries of a doctorate in recording order, optionally
// restricted to those carrying every tag given.
func (h *Memory) List(doctorateID id.DoctorateID, tags ...string) []ports.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []ports.HistoryEntry
	for _, e := range h.entries[doctorateID] {
		if hasAll(e.Tags, tags) {
			out = append(out, e)
		}
	}
	return out
}

func hasAll(have, want []string) bool {
	for _, t := range want {
		if !slices.Contains(have, t) {
			return false
		}
	}
	return true
}
