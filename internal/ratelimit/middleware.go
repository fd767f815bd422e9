package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"parcours/internal/platform/metrics"
	"parcours/pkg/platform/httputil"
	"parcours/pkg/platform/middleware/request"
	"parcours/pkg/requestcontext"
)

const keyPrefix = "parcours:ratelimit:"

type Middleware struct {
	store   Store
	limits  map[Class]Limit
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Middleware)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

// New limits each class to its entry in limits. A class without an entry is
// not limited.
func New(store Store, limits map[Class]Limit, logger *slog.Logger, opts ...Option) *Middleware {
	mw := &Middleware{store: store, limits: limits, logger: logger}
	for _, opt := range opts {
		opt(mw)
	}
	return mw
}

// ByMethod limits safe methods as reads and everything else as writes. It
// must run after authentication: the key is the actor, or the client
// address for anonymous requests.
func (m *Middleware) ByMethod(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := ClassWrite
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			class = ClassRead
		}
		limit, ok := m.limits[class]
		if !ok || limit.Requests <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		subject := requestcontext.Actor(ctx).String()
		if subject == "" {
			subject = request.ClientIP(r)
		}
		result, err := m.store.Allow(ctx, keyPrefix+string(class)+":"+subject, limit)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check rate limit", "class", class, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		if !result.Allowed {
			m.logger.InfoContext(ctx, "rate limit exceeded", "class", class, "subject", subject)
			if m.metrics != nil {
				m.metrics.IncrementRateLimited(string(class))
			}
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
				Error:            "rate_limit_exceeded",
				ErrorDescription: "too many requests, retry later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
