package redis

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"parcours/internal/ratelimit"
	dErrors "parcours/pkg/domain-errors"
)

// RateLimitStore keeps one sorted set per key, scored by request time, so
// the limit holds across instances.
type RateLimitStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRateLimitStore(client *redis.Client) *RateLimitStore {
	return &RateLimitStore{client: client, now: time.Now}
}

var _ ratelimit.Store = (*RateLimitStore)(nil)

// Allow records the request, then takes it back when the window was
// already full.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit ratelimit.Limit) (ratelimit.Result, error) {
	now := s.now()
	member := uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-limit.Window).UnixMicro(), 10)

	var count *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", cutoff)
		p.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMicro()), Member: member})
		count = p.ZCard(ctx, key)
		oldest = p.ZRangeWithScores(ctx, key, 0, 0)
		p.PExpire(ctx, key, limit.Window)
		return nil
	})
	if err != nil {
		return ratelimit.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}

	resetAt := now.Add(limit.Window)
	if first := oldest.Val(); len(first) > 0 {
		resetAt = time.UnixMicro(int64(first[0].Score)).Add(limit.Window)
	}
	n := int(count.Val())
	if n > limit.Requests {
		if err := s.client.ZRem(ctx, key, member).Err(); err != nil {
			return ratelimit.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
		}
		return ratelimit.Result{
			Limit:      limit.Requests,
			ResetAt:    resetAt,
			RetryAfter: max(1, int(math.Ceil(resetAt.Sub(now).Seconds()))),
		}, nil
	}
	return ratelimit.Result{
		Allowed:   true,
		Limit:     limit.Requests,
		Remaining: limit.Requests - n,
		ResetAt:   resetAt,
	}, nil
}
