package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "bylawbot"

// Search and result cache Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Bylaw searches by outcome",
		},
		[]string{"mode", "outcome"}, // mode: standard/optimized; outcome: hit/shared/miss/error/canceled
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration including embedding and index query",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode", "cached"},
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results_returned",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		},
	)

	ResultCacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_events_total",
			Help:      "Search result cache events",
		},
		[]string{"event"}, // hit/miss/evicted/expired/fault
	)

	CitationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citations_total",
			Help:      "Bylaw mentions seen by the annotator",
		},
		[]string{"verified"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search, result cache and citation metrics.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsReturned)
	prometheus.MustRegister(ResultCacheEvents)
	prometheus.MustRegister(CitationsTotal)
	searchMetricsRegistered = true
}

// CacheObserver reports result cache events to ResultCacheEvents.
type CacheObserver struct{}

// Hit counts a cache hit.
func (CacheObserver) Hit() { ResultCacheEvents.WithLabelValues("hit").Inc() }

// Miss counts a cache miss.
func (CacheObserver) Miss() { ResultCacheEvents.WithLabelValues("miss").Inc() }

// Evicted counts a capacity eviction.
func (CacheObserver) Evicted() { ResultCacheEvents.WithLabelValues("evicted").Inc() }

// Expired counts entries dropped for age.
func (CacheObserver) Expired(n int) {
	if n > 0 {
		ResultCacheEvents.WithLabelValues("expired").Add(float64(n))
	}
}

// CacheFault counts a recovered cache panic.
func CacheFault() { ResultCacheEvents.WithLabelValues("fault").Inc() }

// CitationRecorder reports annotator references to CitationsTotal.
type CitationRecorder struct{}

// Citation counts one resolved reference.
func (CitationRecorder) Citation(_ string, verified bool) {
	label := "false"
	if verified {
		label = "true"
	}
	CitationsTotal.WithLabelValues(label).Inc()
}
