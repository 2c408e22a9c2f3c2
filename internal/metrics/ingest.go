package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestChunksTotal counts chunks processed by corpus ingestion.
var IngestChunksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_chunks_total",
		Help:      "Chunks processed by ingestion",
	},
	[]string{"status"}, // ok/removed/error
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers ingestion metrics.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestChunksTotal)
	ingestMetricsRegistered = true
}
