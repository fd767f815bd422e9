package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the workflow engine.
type Metrics struct {
	Commands         *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	Violations       *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	RelayPublished   prometheus.Counter
	RelayFailed      prometheus.Counter
	RelayDuration    prometheus.Histogram
	RelayBreakerOpen prometheus.Gauge
	DashboardCache   *prometheus.CounterVec
	RateLimited      *prometheus.CounterVec
}

// New registers the metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics on reg. Tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "parcours_commands_total",
			Help: "Commands dispatched, by command name and outcome",
		}, []string{"command", "outcome"}),
		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parcours_command_duration_seconds",
			Help:    "Time spent handling a command",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
		Violations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "parcours_business_violations_total",
			Help: "Business rule violations reported to callers, by code",
		}, []string{"code"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "parcours_status_transitions_total",
			Help: "Doctorate status transitions, by target status",
		}, []string{"status"}),
		RelayPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "parcours_outbox_published_total",
			Help: "Outbox entries published to the broker",
		}),
		RelayFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "parcours_outbox_failed_total",
			Help: "Outbox entries whose publication failed",
		}),
		RelayDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "parcours_outbox_batch_duration_seconds",
			Help:    "Time spent relaying one outbox batch",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5},
		}),
		RelayBreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "parcours_outbox_breaker_open",
			Help: "1 while the relay circuit breaker is open",
		}),
		DashboardCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "parcours_dashboard_cache_total",
			Help: "Dashboard cache lookups, by result",
		}, []string{"result"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "parcours_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by endpoint class",
		}, []string{"class"}),
	}
}

func (m *Metrics) ObserveCommand(command, outcome string, d time.Duration) {
	m.Commands.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (m *Metrics) IncrementViolation(code string) {
	m.Violations.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementTransition(status string) {
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveDashboardCache(hit bool) {
	if hit {
		m.DashboardCache.WithLabelValues("hit").Inc()
		return
	}
	m.DashboardCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) IncrementRateLimited(class string) {
	m.RateLimited.WithLabelValues(class).Inc()
}

func (m *Metrics) ObserveRelayBatch(published, failed int, duration time.Duration) {
	m.RelayPublished.Add(float64(published))
	m.RelayFailed.Add(float64(failed))
	m.RelayDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetRelayBreakerOpen(open bool) {
	if open {
		m.RelayBreakerOpen.Set(1)
		return
	}
	m.RelayBreakerOpen.Set(0)
}
