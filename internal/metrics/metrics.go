package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chat_auth"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AuthOutcomes counts login, refresh and logout results.
	AuthOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_outcomes_total",
			Help:      "Session operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
)

const (
	OpSignup  = "signup"
	OpLogin   = "login"
	OpRefresh = "refresh"
	OpLogout  = "logout"

	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
	OutcomeConflict     = "conflict"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
)

func ObserveAuth(operation, outcome string) {
	AuthOutcomes.WithLabelValues(operation, outcome).Inc()
}
