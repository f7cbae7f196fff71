// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildboard_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guildboard_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthFailures counts rejected authentications by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildboard_auth_failures_total",
		Help: "Total number of rejected authentications by reason",
	}, []string{"reason"})

	// ToggleOperations counts toggle-state operations by kind and outcome.
	ToggleOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildboard_toggle_operations_total",
		Help: "Total number of toggle operations (join/leave/like/save/apply) by outcome",
	}, []string{"operation", "outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
