// Package redis holds the redis-backed counters shared by every instance of
// the service.
package redis

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	dErrors "parcours/pkg/domain-errors"
)

var nextDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "parcours_reference_sequence_duration_ms",
	Help:    "Latency of reference number allocation in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const sequenceKeyPrefix = "parcours:reference:"

// Sequence allocates doctorate reference numbers with INCR. Numbers are not
// returned when the enclosing transaction rolls back, so gaps are possible.
type Sequence struct {
	client *redis.Client
}

func NewSequence(client *redis.Client) *Sequence {
	return &Sequence{client: client}
}

func (s *Sequence) Next(ctx context.Context, scope string) (int64, error) {
	start := time.Now()
	defer func() {
		nextDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	n, err := s.client.Incr(ctx, sequenceKeyPrefix+scope).Result()
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate reference")
	}
	return n, nil
}
