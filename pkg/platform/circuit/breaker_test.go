package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) breaker(opts ...Option) *Breaker {
	b := New("kafka-publisher", opts...)
	b.now = func() time.Time { return s.now }
	return b
}

func (s *BreakerSuite) TestStartsClosed() {
	b := s.breaker()
	s.Equal("kafka-publisher", b.Name())
	s.Equal(StateClosed, b.State())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestOpensOnConsecutiveFailures() {
	b := s.breaker(WithFailureThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	s.False(b.IsOpen())

	fallback, change := b.RecordFailure()
	s.True(fallback)
	s.True(change.Opened)
	s.True(b.IsOpen())

	fallback, change = b.RecordFailure()
	s.True(fallback)
	s.False(change.Opened)
}

func (s *BreakerSuite) TestProbesAfterCooldown() {
	b := s.breaker(WithFailureThreshold(1), WithCooldown(10*time.Second))
	b.RecordFailure()
	s.False(b.Allow())

	s.now = s.now.Add(9 * time.Second)
	s.False(b.Allow())
	s.now = s.now.Add(time.Second)
	s.True(b.Allow())

	// a failed probe restarts the cooldown
	b.RecordFailure()
	s.False(b.Allow())
}

func (s *BreakerSuite) TestClosesAfterConsecutiveSuccesses() {
	b := s.breaker(WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	primary, _ := b.RecordSuccess()
	s.False(primary)
	b.RecordFailure()
	primary, _ = b.RecordSuccess()
	s.False(primary)

	primary, change := b.RecordSuccess()
	s.True(primary)
	s.True(change.Closed)
	s.Equal(StateClosed, b.State())
}

func (s *BreakerSuite) TestReset() {
	b := s.breaker(WithFailureThreshold(1))
	b.RecordFailure()
	b.Reset()
	s.False(b.IsOpen())
	s.True(b.Allow())
}
