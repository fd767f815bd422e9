//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"parcours/pkg/platform/outbox"
	txcontext "parcours/pkg/platform/tx"
	"parcours/pkg/testutil/containers"
)

const outboxDDL = `
CREATE TABLE IF NOT EXISTS outbox (
    id             UUID PRIMARY KEY,
    topic          TEXT NOT NULL,
    aggregate_type TEXT NOT NULL,
    aggregate_id   TEXT NOT NULL,
    event_type     TEXT NOT NULL,
    payload        JSONB NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL,
    published_at   TIMESTAMPTZ,
    attempts       INTEGER NOT NULL DEFAULT 0
)`

type StoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *Store
	ctx      context.Context
	now      time.Time
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	_, err := s.postgres.DB.Exec(outboxDDL)
	s.Require().NoError(err)
	s.store = New(s.postgres.DB)
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "outbox"))
}

func (s *StoreSuite) entry(offset time.Duration) outbox.Entry {
	e, err := outbox.NewEntry(outbox.TopicHistory, "doctorate", "d-1", "history_recorded",
		map[string]string{"message": "created"}, s.now.Add(offset))
	s.Require().NoError(err)
	return e
}

func (s *StoreSuite) TestPendingInCreationOrderUntilPublished() {
	second, first := s.entry(time.Minute), s.entry(0)
	s.Require().NoError(s.store.Append(s.ctx, second, first))

	pending, err := s.store.Pending(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(first.ID, pending[0].ID)
	s.JSONEq(`{"message":"created"}`, string(pending[0].Payload))

	s.Require().NoError(s.store.MarkFailed(s.ctx, []uuid.UUID{first.ID}))
	s.Require().NoError(s.store.MarkPublished(s.ctx, []uuid.UUID{second.ID}, s.now))

	pending, err = s.store.Pending(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(1, pending[0].Attempts)
}

func (s *StoreSuite) TestAppendJoinsTheContextTransaction() {
	boom := errors.New("boom")
	err := txcontext.Run(s.ctx, s.postgres.DB, func(ctx context.Context, _ *sql.Tx) error {
		s.Require().NoError(s.store.Append(ctx, s.entry(0)))
		return boom
	})
	s.ErrorIs(err, boom)

	pending, err := s.store.Pending(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}
