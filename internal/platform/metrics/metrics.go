// Package metrics holds the service's Prometheus collectors on a
// dedicated registry so tests can register without clashing with the
// global default.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is what the /metrics endpoint serves.
	Registry = prometheus.NewRegistry()

	// GeocodeLookups counts address resolutions by where the answer came
	// from: memory, cache, oracle, or error.
	GeocodeLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vanrouter",
		Name:      "geocode_lookups_total",
		Help:      "Address resolutions by source.",
	}, []string{"source"})

	// OracleRequests counts outbound mapping-provider calls by kind and
	// outcome.
	OracleRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vanrouter",
		Name:      "oracle_requests_total",
		Help:      "Mapping provider requests by kind and outcome.",
	}, []string{"kind", "outcome"})

	// SolveDuration tracks wall-clock time of whole optimization runs.
	SolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vanrouter",
		Name:      "solve_duration_seconds",
		Help:      "End to end optimization time.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// OpDuration tracks timed internal operations by name.
	OpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vanrouter",
		Name:      "op_duration_seconds",
		Help:      "Duration of timed internal operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	// HTTPRequests counts served requests by route and status class.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vanrouter",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status class.",
	}, []string{"route", "status"})

	// HTTPDuration tracks request latency by route.
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vanrouter",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	// PlanEdits counts applied and rejected plan edits by kind.
	PlanEdits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vanrouter",
		Name:      "plan_edits_total",
		Help:      "Plan edits by kind and outcome.",
	}, []string{"kind", "outcome"})
)

var registerOnce sync.Once

// Register installs every collector on Registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			GeocodeLookups,
			OracleRequests,
			SolveDuration,
			OpDuration,
			HTTPRequests,
			HTTPDuration,
			PlanEdits,
		)
	})
}
