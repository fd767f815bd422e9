package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"parcours/internal/ports"
	id "parcours/pkg/domain"
)

// HistoryStore holds the projected doctorate timeline.
type HistoryStore struct {
	c conn
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{c: conn{db: db}}
}

// Append stores entry once; a replayed entry id is ignored.
func (s *HistoryStore) Append(ctx context.Context, entryID uuid.UUID, entry ports.HistoryEntry) error {
	tags, err := encode(entry.Tags, "history tags")
	if err != nil {
		return err
	}
	var extra []byte
	if len(entry.Extra) > 0 {
		if extra, err = encode(entry.Extra, "history extra"); err != nil {
			return err
		}
	}
	query := `
		INSERT INTO history_entries (entry_id, doctorate_id, author, message, tags, extra, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (entry_id) DO NOTHING
	`
	return exec(ctx, s.c, "append history entry", query,
		entryID, entry.DoctorateID.String(), entry.Author.String(), entry.Message, tags, extra, entry.At)
}

// Timeline returns the entries of a doctorate carrying every tag, oldest
// first.
func (s *HistoryStore) Timeline(ctx context.Context, doctorateID id.DoctorateID, tags ...string) ([]ports.HistoryEntry, error) {
	filter, err := encode(tags, "history tags")
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		filter = []byte(`[]`)
	}
	query := `
		SELECT author, message, tags, extra, at
		FROM history_entries
		WHERE doctorate_id = $1 AND tags @> $2::jsonb
		ORDER BY at, entry_id
	`
	rows, err := s.c.execer(ctx).QueryContext(ctx, query, doctorateID.String(), filter)
	if err != nil {
		return nil, translate(err, "history timeline")
	}
	defer rows.Close()

	out := []ports.HistoryEntry{}
	for rows.Next() {
		e := ports.HistoryEntry{DoctorateID: doctorateID}
		var author string
		var rawTags, rawExtra []byte
		if err := rows.Scan(&author, &e.Message, &rawTags, &rawExtra, &e.At); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Author = id.Matricule(author)
		if err := json.Unmarshal(rawTags, &e.Tags); err != nil {
			return nil, fmt.Errorf("decode history tags: %w", err)
		}
		if len(rawExtra) > 0 {
			if err := json.Unmarshal(rawExtra, &e.Extra); err != nil {
				return nil, fmt.Errorf("decode history extra: %w", err)
			}
		}
		e.At = e.At.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "history timeline")
	}
	return out, nil
}
