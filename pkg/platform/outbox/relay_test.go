package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"parcours/pkg/platform/circuit"
)

type fakePublisher struct {
	err       error
	published []Entry
}

func (p *fakePublisher) Publish(_ context.Context, entries []Entry) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, entries...)
	return nil
}

type RelaySuite struct {
	suite.Suite
	ctx       context.Context
	store     *MemoryStore
	publisher *fakePublisher
	relay     *Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemoryStore()
	s.publisher = &fakePublisher{}
	s.relay = NewRelay(s.store, s.publisher,
		WithRelayLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBatchSize(2),
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))),
	)
}

func (s *RelaySuite) append(n int) {
	for range n {
		e, err := NewEntry(TopicHistory, "doctorate", "d1", "test", map[string]string{"k": "v"}, time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.Append(s.ctx, e))
	}
}

func (s *RelaySuite) TestPublishesInBatches() {
	s.append(3)

	n, err := s.relay.RelayOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.relay.RelayOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	pending, err := s.store.Pending(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
	s.Len(s.publisher.published, 3)
}

func (s *RelaySuite) TestFailureKeepsEntriesAndOpensBreaker() {
	s.append(1)
	s.publisher.err = errors.New("broker down")

	_, err := s.relay.RelayOnce(s.ctx)
	s.Error(err)
	pending, err := s.store.Pending(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(1, pending[0].Attempts)

	// open breaker skips the batch entirely
	s.publisher.err = nil
	n, err := s.relay.RelayOnce(s.ctx)
	s.NoError(err)
	s.Zero(n)
	s.Empty(s.publisher.published)
}

func (s *RelaySuite) TestBufferFlush() {
	var buf Buffer
	e, err := NewEntry(TopicNotification, "doctorate", "d1", "email", struct{}{}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(buf.Append(s.ctx, e))
	s.Empty(s.store.All())

	s.Require().NoError(buf.Flush(s.ctx, s.store))
	s.Len(s.store.All(), 1)
	s.Require().NoError(buf.Flush(s.ctx, s.store))
	s.Len(s.store.All(), 1)
}
