package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"parcours/pkg/platform/circuit"
)

// RelayMetrics is fed by the relay after each batch.
type RelayMetrics interface {
	ObserveRelayBatch(published, failed int, duration time.Duration)
	SetRelayBreakerOpen(open bool)
}

// Relay moves committed entries from the store to the publisher. Failed
// batches stay pending and are retried on the next tick, so transport
// failures never reach the command that produced the entries.
type Relay struct {
	store     Store
	publisher Publisher
	breaker   *circuit.Breaker
	interval  time.Duration
	batch     int
	logger    *slog.Logger
	metrics   RelayMetrics
}

type RelayOption func(*Relay)

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) { r.logger = logger }
}

func WithRelayMetrics(m RelayMetrics) RelayOption {
	return func(r *Relay) { r.metrics = m }
}

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithBreaker(b *circuit.Breaker) RelayOption {
	return func(r *Relay) { r.breaker = b }
}

func NewRelay(store Store, publisher Publisher, opts ...RelayOption) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		interval:  time.Second,
		batch:     100,
		logger:    slog.Default(),
		breaker:   circuit.New("outbox-relay", circuit.WithFailureThreshold(3), circuit.WithCooldown(10*time.Second)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "outbox relay batch failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries went out.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	if !r.breaker.Allow() {
		return 0, nil
	}
	ctx, span := otel.Tracer("parcours/outbox").Start(ctx, "outbox.relay")
	defer span.End()

	start := time.Now()
	entries, err := r.store.Pending(ctx, r.batch)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	span.SetAttributes(attribute.Int("outbox.batch", len(entries)))

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	if err := r.publisher.Publish(ctx, entries); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		_, change := r.breaker.RecordFailure()
		if change.Opened {
			r.logger.ErrorContext(ctx, "outbox relay circuit opened", "error", err)
			r.observeBreaker(true)
		}
		if markErr := r.store.MarkFailed(ctx, ids); markErr != nil {
			r.logger.ErrorContext(ctx, "failed to record outbox attempt", "error", markErr)
		}
		r.observe(0, len(entries), start)
		return 0, err
	}

	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "outbox relay circuit closed")
		r.observeBreaker(false)
	}
	if err := r.store.MarkPublished(ctx, ids, time.Now()); err != nil {
		// entries will be published again; consumers dedupe on entry_id
		r.logger.ErrorContext(ctx, "failed to mark outbox entries published", "error", err)
		return len(entries), err
	}
	r.observe(len(entries), 0, start)
	return len(entries), nil
}

func (r *Relay) observe(published, failed int, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveRelayBatch(published, failed, time.Since(start))
	}
}

func (r *Relay) observeBreaker(open bool) {
	if r.metrics != nil {
		r.metrics.SetRelayBreakerOpen(open)
	}
}
