package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and index Prometheus metrics.
var (
	DocumentsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "documents_ingested_total",
			Help:      "Total documents ingested",
		},
		[]string{"status"}, // "ok" / "error"
	)

	SegmentsIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "segments_indexed_total",
			Help:      "Total text segments added to the index",
		},
	)

	IndexSegments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docqa",
			Name:      "index_segments",
			Help:      "Current number of segments in the index",
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(DocumentsIngestedTotal)
	prometheus.MustRegister(SegmentsIndexedTotal)
	prometheus.MustRegister(IndexSegments)
	ingestMetricsRegistered = true
}
