// Package readview answers the management queries over the doctorates: the
// filtered list, the indicator dashboard and the spreadsheet export.
package readview

import (
	"context"
	"log/slog"
	"time"

	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/platform/metrics"
	"parcours/internal/ports"
	id "parcours/pkg/domain"
)

const (
	dashboardKeyPrefix = "parcours:dashboard:"
	defaultCacheTTL    = time.Minute
)

// Cache stores computed dashboards. Get reports a miss with false and no
// error.
type Cache interface {
	Get(ctx context.Context, key string) (Dashboard, bool, error)
	Set(ctx context.Context, key string, d Dashboard, ttl time.Duration) error
}

type Service struct {
	uow     ports.UnitOfWork
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCache serves dashboards from cache for ttl. A zero ttl keeps the
// default of one minute.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func New(uow ports.UnitOfWork, opts ...Option) *Service {
	s := &Service{
		uow:    uow,
		ttl:    defaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns one doctorate.
func (s *Service) Get(ctx context.Context, doctorateID id.DoctorateID) (doctorate.DoctorateDTO, error) {
	var out doctorate.DoctorateDTO
	err := s.uow.RunInTx(ctx, func(stores ports.Stores) error {
		d, err := stores.Doctorates.GetDTO(ctx, doctorateID)
		if err != nil {
			return ports.Lookup(err, "doctorate", "")
		}
		out = d
		return nil
	})
	return out, err
}
