package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StructuringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rao_structuring_duration_seconds",
			Help:    "Article structuring duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	StructuringTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rao_structuring_total",
			Help: "Total structuring runs",
		},
		[]string{"status"},
	)

	ChunksPerArticle = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rao_chunks_per_article",
			Help:    "Number of chunks produced per article",
			Buckets: []float64{1, 2, 5, 10, 15, 25, 50},
		},
	)

	QualityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rao_quality_score",
			Help:    "Overall structuring quality scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	CitationsTracked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rao_citations_tracked_total",
			Help: "Total AI citations tracked",
		},
		[]string{"source"},
	)

	OverviewChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rao_overview_checks_total",
			Help: "Total AI overview appearance checks",
		},
		[]string{"platform", "appeared"},
	)

	RecommendationsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rao_recommendations_generated_total",
			Help: "Total adaptation recommendations generated",
		},
	)

	AdaptationsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rao_adaptations_applied_total",
			Help: "Total adaptations applied",
		},
		[]string{"type", "status"},
	)

	AuditRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rao_audit_runs_total",
			Help: "Total monthly audit runs",
		},
		[]string{"status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rao_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rao_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rao_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)
)

func Init() {
	prometheus.MustRegister(StructuringDuration)
	prometheus.MustRegister(StructuringTotal)
	prometheus.MustRegister(ChunksPerArticle)
	prometheus.MustRegister(QualityScore)
	prometheus.MustRegister(CitationsTracked)
	prometheus.MustRegister(OverviewChecks)
	prometheus.MustRegister(RecommendationsGenerated)
	prometheus.MustRegister(AdaptationsApplied)
	prometheus.MustRegister(AuditRuns)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(LLMTokensUsed)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
