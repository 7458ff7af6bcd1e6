package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shares_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// SharePrepares counts prepare requests by outcome (ok|invalid|denied|error).
	SharePrepares = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shares_prepare_total",
			Help: "Total number of share prepare requests",
		},
		[]string{"entity_type", "result"},
	)

	// ShareUpdates counts update requests by outcome (ok|invalid|denied|error).
	ShareUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shares_update_total",
			Help: "Total number of share update requests",
		},
		[]string{"entity_type", "result"},
	)

	// GrantChanges counts grants written by an update, per operation (create|update|delete).
	GrantChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shares_grant_changes_total",
			Help: "Total number of grant changes applied",
		},
		[]string{"operation"},
	)

	// ValidationFailures counts failed share validations per field.
	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shares_validation_failures_total",
			Help: "Total number of share validation failures",
		},
		[]string{"field"},
	)

	// ExpiredGrants counts grants removed by the expiry job.
	ExpiredGrants = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shares_expired_grants_total",
			Help: "Total number of expired grants removed",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shares_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
