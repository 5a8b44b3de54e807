// Package metrics holds the Prometheus collectors for adapter activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the collector registry served on /metrics and written to the
// textfile export.
var Registry = prometheus.NewRegistry()

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wingetbridge_operations_total",
			Help: "Completed operations by intent and outcome.",
		},
		[]string{"intent", "outcome"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wingetbridge_operation_duration_seconds",
			Help:    "Wall time of completed operations.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"intent"},
	)

	parseFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wingetbridge_parse_fallbacks_total",
			Help: "Rows recovered through a degraded parsing path.",
		},
		[]string{"kind"},
	)

	rowsParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wingetbridge_rows_parsed_total",
			Help: "Table rows turned into records.",
		},
		[]string{"intent"},
	)

	updatesAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wingetbridge_updates_available",
			Help: "Number of upgradable packages seen by the last update listing.",
		},
	)

	sourcesRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wingetbridge_sources_registered",
			Help: "Number of sources in the registry after the last refresh.",
		},
	)
)

func init() {
	Registry.MustRegister(
		operationsTotal,
		operationDuration,
		parseFallbacksTotal,
		rowsParsed,
		updatesAvailable,
		sourcesRegistered,
	)
}

// ObserveOperation records a finished operation.
func ObserveOperation(intent, outcome string, d time.Duration) {
	operationsTotal.WithLabelValues(intent, outcome).Inc()
	operationDuration.WithLabelValues(intent).Observe(d.Seconds())
}

// ParseFallback counts a row recovered by a degraded path ("marker" or
// "offsets").
func ParseFallback(kind string) {
	parseFallbacksTotal.WithLabelValues(kind).Inc()
}

// RowsParsed adds n parsed rows for intent.
func RowsParsed(intent string, n int) {
	rowsParsed.WithLabelValues(intent).Add(float64(n))
}

// SetUpdatesAvailable sets the pending update gauge.
func SetUpdatesAvailable(n int) {
	updatesAvailable.Set(float64(n))
}

// SetSourcesRegistered sets the registry size gauge.
func SetSourcesRegistered(n int) {
	sourcesRegistered.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current metrics to path for node_exporter's
// textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
