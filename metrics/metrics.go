// Package metrics registers the Prometheus instruments used across
// the delay cache, the walk-directions client, and the planner. It
// does not serve an HTTP exposition endpoint itself — the adapter
// layer mounts Registry wherever it likes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fernway/transit/delaycache"
)

// Metrics bundles every instrument this module updates.
type Metrics struct {
	Registry *prometheus.Registry

	DelayCache *delaycache.Metrics

	WalkDirectionsDuration prometheus.Histogram
	WalkDirectionsFailures prometheus.Counter

	PlannerQueriesTotal *prometheus.CounterVec
}

// New creates a fresh registry and registers every instrument.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry:   reg,
		DelayCache: delaycache.NewMetrics(reg),
		WalkDirectionsDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "walkdirections_request_duration_seconds",
			Help:    "Walk Directions Provider call latency.",
			Buckets: prometheus.DefBuckets,
		}),
		WalkDirectionsFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walkdirections_failures_total",
			Help: "Walk Directions Provider calls that failed and fell back to a haversine walk.",
		}),
		PlannerQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_queries_total",
			Help: "Itinerary planner queries by result kind.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.WalkDirectionsDuration, m.WalkDirectionsFailures, m.PlannerQueriesTotal)

	return m
}
