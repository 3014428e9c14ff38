package metrics

import "github.com/prometheus/client_golang/prometheus"

// Index cycle Prometheus metrics.
var (
	SyncCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worklens",
			Name:      "sync_cycles_total",
			Help:      "Total index sync cycles per project",
		},
		[]string{"organization", "project", "status"},
	)

	SyncCycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "worklens",
			Name:      "sync_cycle_duration_seconds",
			Help:      "Index sync cycle duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"organization", "project"},
	)

	SyncDocumentsIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worklens",
			Name:      "sync_documents_indexed_total",
			Help:      "Documents written per sync cycle by source type",
		},
		[]string{"organization", "project", "source_type"},
	)

	SyncDocumentsDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worklens",
			Name:      "sync_documents_deleted_total",
			Help:      "Stale documents removed per sync cycle",
		},
		[]string{"organization", "project"},
	)
)

var syncMetricsRegistered bool

// RegisterSyncMetrics registers Prometheus sync metrics. Must be called once from main.
func RegisterSyncMetrics() {
	if syncMetricsRegistered {
		return
	}
	prometheus.MustRegister(SyncCyclesTotal)
	prometheus.MustRegister(SyncCycleDuration)
	prometheus.MustRegister(SyncDocumentsIndexed)
	prometheus.MustRegister(SyncDocumentsDeleted)
	syncMetricsRegistered = true
}
