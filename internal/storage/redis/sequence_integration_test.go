//go:build integration

package redis_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/storage/redis"
	"parcours/pkg/testutil/containers"
)

type SequenceSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	seq   *redis.Sequence
}

func TestSequenceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SequenceSuite))
}

func (s *SequenceSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.seq = redis.NewSequence(s.redis.Client)
}

func (s *SequenceSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *SequenceSuite) TestScopesAreIndependent() {
	ctx := context.Background()
	a := doctorate.ReferenceScope("cdsc", 2025)
	b := doctorate.ReferenceScope("CDSC", 2026)

	n, err := s.seq.Next(ctx, a)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
	n, err = s.seq.Next(ctx, a)
	s.Require().NoError(err)
	s.Equal(int64(2), n)
	n, err = s.seq.Next(ctx, b)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *SequenceSuite) TestConcurrentAllocationsAreUnique() {
	ctx := context.Background()
	scope := doctorate.ReferenceScope("CDE", 2025)

	const workers = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.seq.Next(ctx, scope)
			s.NoError(err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	s.Len(seen, workers)
}
