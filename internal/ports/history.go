package ports

import (
	"context"
	"time"

	id "parcours/pkg/domain"
)

// Tags every entry may carry next to the aggregate and step tags.
const TagStatusChanged = "status-changed"

// HistoryEntry is one immutable line of a doctorate's history.
type HistoryEntry struct {
	DoctorateID id.DoctorateID    `json:"doctorate_id"`
	Author      id.Matricule      `json:"author"`
	Message     string            `json:"message"`
	Tags        []string          `json:"tags"`
	Extra       map[string]string `json:"extra,omitempty"`
	At          time.Time         `json:"at"`
}

type History interface {
	Record(ctx context.Context, entry HistoryEntry) error
}
