package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"parcours/internal/ratelimit"
	authmw "parcours/pkg/platform/middleware/auth"
	"parcours/pkg/platform/middleware/request"
	"parcours/pkg/platform/middleware/requesttime"
)

// RouterConfig carries what the router needs besides the handler.
type RouterConfig struct {
	Validator      authmw.JWTValidator
	Logger         *slog.Logger
	RequestTimeout time.Duration
	// Extra is mounted outside authentication, e.g. /metrics.
	Extra map[string]http.Handler
	// Limiter, when set, limits every authenticated route.
	Limiter *ratelimit.Middleware
}

// NewRouter wires the public endpoints. Every route under /api requires a
// bearer token.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.AccessLog(cfg.Logger))
	if cfg.RequestTimeout > 0 {
		r.Use(request.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", h.HandleHealth)
	for path, handler := range cfg.Extra {
		r.Handle(path, handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Validator, cfg.Logger))
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.ByMethod)
		}
		h.Register(r)
	})
	return r
}
