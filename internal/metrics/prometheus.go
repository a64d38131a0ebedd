package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cybernews_request_duration_seconds",
			Help:    "API request handling duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cybernews_search_total",
			Help: "Total semantic search requests processed",
		},
		[]string{"status"},
	)

	SearchTermsMatched = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cybernews_search_terms_matched",
			Help:    "Query terms resolved to an ontology class per request",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	MatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cybernews_match_score",
			Help:    "Cosine similarity of accepted class matches",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	EmbeddingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cybernews_embedding_requests_total",
			Help: "Outbound embedding provider calls",
		},
		[]string{"status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cybernews_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cybernews_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	ArticlesAggregated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cybernews_articles_aggregated",
			Help:    "Articles retained per statistics request",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
		},
	)

	ArticlesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cybernews_articles_ingested_total",
			Help: "Total articles ingested",
		},
	)

	OntologyClassesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cybernews_ontology_classes_total",
			Help: "Classes retained from the loaded ontology",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(SearchTermsMatched)
	prometheus.MustRegister(MatchScore)
	prometheus.MustRegister(EmbeddingRequests)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(ArticlesAggregated)
	prometheus.MustRegister(ArticlesIngested)
	prometheus.MustRegister(OntologyClassesTotal)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
