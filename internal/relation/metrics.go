package relation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// syncTotal counts finished syncs.
	// Labels: kind (pivot table), mode (exact, attach_only), result (ok, changed, error)
	syncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness",
		Subsystem: "relation",
		Name:      "sync_total",
		Help:      "Relationship syncs by kind, mode and result",
	}, []string{"kind", "mode", "result"})

	// syncDuration measures a full sync including retries.
	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitness",
		Subsystem: "relation",
		Name:      "sync_duration_seconds",
		Help:      "Relationship sync latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"kind", "mode"})

	pairsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness",
		Subsystem: "relation",
		Name:      "pairs_inserted_total",
		Help:      "Association rows inserted by sync",
	}, []string{"kind"})

	pairsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness",
		Subsystem: "relation",
		Name:      "pairs_deleted_total",
		Help:      "Association rows deleted by sync",
	}, []string{"kind"})

	// syncRetries counts attempts repeated after a duplicate pair.
	syncRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness",
		Subsystem: "relation",
		Name:      "sync_retries_total",
		Help:      "Sync attempts retried after a duplicate pair conflict",
	}, []string{"kind"})
)
