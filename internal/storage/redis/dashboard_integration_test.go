//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"parcours/internal/readview"
	"parcours/internal/storage/redis"
	"parcours/pkg/testutil/containers"
)

type DashboardCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *redis.DashboardCache
}

func TestDashboardCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(DashboardCacheSuite))
}

func (s *DashboardCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = redis.NewDashboardCache(s.redis.Client)
}

func (s *DashboardCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *DashboardCacheSuite) TestMissThenHit() {
	ctx := context.Background()
	_, hit, err := s.cache.Get(ctx, "parcours:dashboard:CDSC|")
	s.Require().NoError(err)
	s.False(hit)

	d := readview.Dashboard{
		Categories: []readview.Category{{
			Name:       "JURY",
			Indicators: []readview.IndicatorCount{{Key: readview.JuryApprovedCA, Count: 3}},
		}},
		ComputedAt: time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.cache.Set(ctx, "parcours:dashboard:CDSC|", d, time.Minute))

	got, hit, err := s.cache.Get(ctx, "parcours:dashboard:CDSC|")
	s.Require().NoError(err)
	s.True(hit)
	s.Equal(3, got.Count(readview.JuryApprovedCA))
	s.True(d.ComputedAt.Equal(got.ComputedAt))
}

func (s *DashboardCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "parcours:dashboard:|", readview.Dashboard{}, time.Second))
	ttl, err := s.redis.Client.TTL(ctx, "parcours:dashboard:|").Result()
	s.Require().NoError(err)
	s.LessOrEqual(ttl, time.Second)
	s.Greater(ttl, time.Duration(0))
}
