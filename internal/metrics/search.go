package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	EngineClientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "engine_client_requests_total",
			Help:      "Total number of requests sent to the search engine",
		},
		[]string{"op", "status"}, // status: success / query_error / network_error / parse_error
	)

	EngineClientRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsearch",
			Name:      "engine_client_request_duration_seconds",
			Help:      "Search engine request duration as seen by the client, in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "result_cache_total",
			Help:      "Result cache lookups by outcome",
		},
		[]string{"result"}, // "hit" / "miss" / "store_hit" / "refetch"
	)

	ResultCacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "result_cache_evictions_total",
			Help:      "Entries evicted from the in-memory result cache",
		},
	)

	EngineQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsearch",
			Name:      "engine_query_duration_seconds",
			Help:      "Engine-side query duration in seconds",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"stage"}, // "search" / "snippets"
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docsearch",
			Name:      "index_documents",
			Help:      "Number of documents in the engine index",
		},
	)

	CrawlerPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "crawler_pages_total",
			Help:      "Crawled pages by outcome",
		},
		[]string{"result"}, // "stored" / "duplicate" / "empty" / "error"
	)

	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "ingest_documents_total",
			Help:      "Documents sent to the engine by the ingest pipeline",
		},
		[]string{"status"}, // "success" / "error"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(EngineClientRequestsTotal)
	prometheus.MustRegister(EngineClientRequestDuration)
	prometheus.MustRegister(ResultCacheTotal)
	prometheus.MustRegister(ResultCacheEvictionsTotal)
	prometheus.MustRegister(EngineQueryDuration)
	prometheus.MustRegister(IndexDocuments)
	prometheus.MustRegister(CrawlerPagesTotal)
	prometheus.MustRegister(IngestDocumentsTotal)
	searchMetricsRegistered = true
}
