package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics exposed by the server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth metrics
	LoginsTotal        *prometheus.CounterVec
	RegistrationsTotal *prometheus.CounterVec
	AccessDeniedTotal  *prometheus.CounterVec
	TokensIssuedTotal  prometheus.Counter

	// Business metrics
	EnrollmentsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on the given registry. A nil
// registry gets a fresh one, keeping tests isolated from each other.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lms_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lms_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lms_logins_total",
				Help: "Login attempts by role and outcome",
			},
			[]string{"role", "outcome"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lms_registrations_total",
				Help: "Registration attempts by role and outcome",
			},
			[]string{"role", "outcome"},
		),
		AccessDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lms_access_denied_total",
				Help: "Requests rejected by the access control policy",
			},
			[]string{"resource"},
		),
		TokensIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lms_tokens_issued_total",
				Help: "Total number of session tokens issued",
			},
		),
		EnrollmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lms_enrollments_total",
				Help: "Enrollment operations by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginsTotal,
		m.RegistrationsTotal,
		m.AccessDeniedTotal,
		m.TokensIssuedTotal,
		m.EnrollmentsTotal,
	)

	return m
}

// Handler returns the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
