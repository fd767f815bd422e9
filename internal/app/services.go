package app

import (
	"log/slog"

	confirmation "parcours/internal/confirmation/service"
	defense "parcours/internal/defense/service"
	diffusion "parcours/internal/diffusion/service"
	doctorate "parcours/internal/doctorate/service"
	jury "parcours/internal/jury/service"
	"parcours/internal/platform/metrics"
	"parcours/internal/ports"
	supervision "parcours/internal/supervision/service"
	training "parcours/internal/training/service"
)

// NewServices builds every workflow service on one unit of work. m may be
// nil.
func NewServices(uow ports.UnitOfWork, directory ports.Directory, logger *slog.Logger, m *metrics.Metrics) Services {
	return Services{
		Doctorate:    doctorate.New(uow, doctorate.WithLogger(logger), doctorate.WithMetrics(m)),
		Supervision:  supervision.New(uow, supervision.WithLogger(logger), supervision.WithMetrics(m)),
		Confirmation: confirmation.New(uow, confirmation.WithLogger(logger), confirmation.WithMetrics(m)),
		Training:     training.New(uow, training.WithLogger(logger)),
		Jury:         jury.New(uow, directory, jury.WithLogger(logger), jury.WithMetrics(m)),
		Defense:      defense.New(uow, defense.WithLogger(logger), defense.WithMetrics(m)),
		Diffusion:    diffusion.New(uow, directory, diffusion.WithLogger(logger)),
	}
}
