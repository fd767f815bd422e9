package history

import (
	"log/slog"

	"github.com/google/uuid"

	"parcours/internal/ports"
	"parcours/pkg/platform/outbox"
	"parcours/pkg/platform/outbox/kafka"
)

func (s *HistorySuite) entry(message string) outbox.Entry {
	e, err := outbox.NewEntry(outbox.TopicHistory, "doctorate", s.doctorateID.String(), "history_recorded",
		ports.HistoryEntry{DoctorateID: s.doctorateID, Author: "S1", Message: message, Tags: []string{"jury"}, At: s.now}, s.now)
	s.Require().NoError(err)
	return e
}

func (s *HistorySuite) TestProjectionFromRelayIsIdempotent() {
	store := NewMemory()
	p := NewProjection(store, slog.Default())
	first := s.entry("Jury modified")
	mail, err := outbox.NewEntry(outbox.TopicNotification, "doctorate", s.doctorateID.String(), "email", map[string]string{}, s.now)
	s.Require().NoError(err)

	s.Require().NoError(p.Publish(s.ctx, []outbox.Entry{first, mail}))
	s.Require().NoError(p.Publish(s.ctx, []outbox.Entry{first}))

	timeline, err := store.Timeline(s.ctx, s.doctorateID)
	s.Require().NoError(err)
	s.Require().Len(timeline, 1)
	s.Equal("Jury modified", timeline[0].Message)
}

func (s *HistorySuite) TestProjectionFromKafka() {
	store := NewMemory()
	p := NewProjection(store, slog.Default())
	e := s.entry("Signatures requested")

	s.Require().NoError(p.Handle(s.ctx, &kafka.Message{
		Topic:   "parcours.history",
		Key:     []byte(s.doctorateID.String()),
		Value:   e.Payload,
		Headers: map[string]string{"entry_id": e.ID.String()},
	}))
	timeline, err := store.Timeline(s.ctx, s.doctorateID, "jury")
	s.Require().NoError(err)
	s.Len(timeline, 1)
}

func (s *HistorySuite) TestProjectionSkipsMalformedRecords() {
	store := NewMemory()
	p := NewProjection(store, slog.Default())

	s.NoError(p.Handle(s.ctx, &kafka.Message{Value: []byte(`{}`), Headers: map[string]string{}}))
	s.NoError(p.Handle(s.ctx, &kafka.Message{Value: []byte(`not json`), Headers: map[string]string{"entry_id": uuid.NewString()}}))
	s.NoError(p.Handle(s.ctx, &kafka.Message{Value: []byte(`{"message":"orphan"}`), Headers: map[string]string{"entry_id": uuid.NewString()}}))

	timeline, err := store.Timeline(s.ctx, s.doctorateID)
	s.Require().NoError(err)
	s.Empty(timeline)
}
