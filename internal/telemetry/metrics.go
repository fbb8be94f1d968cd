// Package telemetry holds the Prometheus metrics exposed on GET /metrics.
//
// HTTP metrics are labelled with the mux route template rather than the raw
// URL so path parameters do not create unbounded label cardinality.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Gate decisions. outcome is one of allowed, unauthenticated, quota_exceeded,
// service_unavailable.
var (
	GateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_decisions_total",
			Help: "Request gate decisions by outcome and whether the route is metered.",
		},
		[]string{"outcome", "metered"},
	)

	LedgerCheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quota_ledger_check_duration_seconds",
			Help:    "Latency of the atomic quota check-and-increment transaction.",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)
)

var (
	ActionChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "action_limiter_checks_total",
			Help: "Action window limiter checks by action and result (allowed, throttled, error).",
		},
		[]string{"action", "result"},
	)

	CredentialsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credentials_issued_total",
			Help: "Number of bearer credentials issued.",
		},
	)

	CredentialsRevokedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credentials_revoked_total",
			Help: "Number of credential revocations processed.",
		},
	)

	PlanChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_changes_total",
			Help: "Plan assignments written, by tier and source (admin, billing).",
		},
		[]string{"tier", "source"},
	)
)
