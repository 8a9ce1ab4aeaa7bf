// Package metrics holds the Prometheus collectors of the dashboard and the
// indexer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// SnapshotLoads counts object reads by outcome (ok, error).
	SnapshotLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routewatch_snapshot_loads_total",
			Help: "Total number of snapshot objects read from storage.",
		},
		[]string{"status"},
	)

	// ShapesResolved counts resolved geometries by shape (route, geometry, routes, none).
	ShapesResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routewatch_shapes_resolved_total",
			Help: "Total number of coordinate geometries resolved, by shape.",
		},
		[]string{"shape"},
	)

	// SnapshotsIndexed counts catalog writes by outcome (ok, error).
	SnapshotsIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routewatch_snapshots_indexed_total",
			Help: "Total number of snapshots recorded in the catalog.",
		},
		[]string{"status"},
	)

	// ListingDuration observes how long one storage listing takes.
	ListingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routewatch_listing_duration_seconds",
			Help:    "Latency of listing snapshot keys in storage.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		SnapshotLoads,
		ShapesResolved,
		SnapshotsIndexed,
		ListingDuration,
	)
}

// Status maps an error to the status label value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
