package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DocumentsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studybuddy_documents_processed_total",
			Help: "Total documents ingested",
		},
	)

	ChunksProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studybuddy_chunks_processed_total",
			Help: "Total chunks embedded and indexed, by outcome",
		},
		[]string{"status"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studybuddy_query_total",
			Help: "Total chat queries processed",
		},
		[]string{"status"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "studybuddy_query_duration_seconds",
			Help:    "Chat query processing duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	RetrievalResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "studybuddy_retrieval_results",
			Help:    "Number of chunks retrieved per query",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studybuddy_embedding_cache_requests_total",
			Help: "Embedding cache lookups, by result",
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(DocumentsProcessed)
	prometheus.MustRegister(ChunksProcessed)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(RetrievalResults)
	prometheus.MustRegister(CacheRequests)
}

// Handler exposes the Prometheus scrape endpoint as a Fiber handler.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
