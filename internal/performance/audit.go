package performance

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/adaptation"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/metrics"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

// Recommender generates adaptation recommendations for one content item.
type Recommender interface {
	Recommend(ctx context.Context, contentID string) ([]adaptation.Recommendation, error)
}

// AuditConfig bounds the audit's scope and its LLM fan-out.
type AuditConfig struct {
	WindowDays         int
	MaxUnderperformers int
	MaxRecommendations int
	LLMCallsPerMinute  int
}

func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		WindowDays:         30,
		MaxUnderperformers: 20,
		MaxRecommendations: 50,
		LLMCallsPerMinute:  10,
	}
}

// AuditResult is the monthly audit report.
type AuditResult struct {
	TotalContent         int                         `json:"totalContent"`
	CitedContent         int                         `json:"citedContent"`
	CitationRate         float64                     `json:"citationRate"`
	AIOverviewRate       float64                     `json:"aiOverviewRate"`
	AvgSemanticRelevance float64                     `json:"avgSemanticRelevance"`
	TopPerformers        []TopPerformer              `json:"topPerformers"`
	Recommendations      []adaptation.Recommendation `json:"recommendations"`
}

type TopPerformer struct {
	ContentID string  `json:"contentId"`
	Title     string  `json:"title"`
	Citations int     `json:"citations"`
	Overviews int     `json:"overviews"`
	Score     float64 `json:"score"`
}

// Auditor runs the periodic performance audit, rate limiting the per-content
// recommendation calls so the LLM fan-out stays bounded.
type Auditor struct {
	store       *sqlite.Client
	recommender Recommender
	limiter     *rate.Limiter
	cfg         AuditConfig
}

func NewAuditor(store *sqlite.Client, recommender Recommender, cfg AuditConfig) *Auditor {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 30
	}
	if cfg.MaxUnderperformers <= 0 {
		cfg.MaxUnderperformers = 20
	}
	if cfg.MaxRecommendations <= 0 {
		cfg.MaxRecommendations = 50
	}
	if cfg.LLMCallsPerMinute <= 0 {
		cfg.LLMCallsPerMinute = 10
	}

	return &Auditor{
		store:       store,
		recommender: recommender,
		limiter:     rate.NewLimiter(rate.Limit(float64(cfg.LLMCallsPerMinute)/60), 1),
		cfg:         cfg,
	}
}

// Run audits every performance record tracked inside the window: aggregate
// rates, rank the top ten performers and gather recommendations for
// underperforming content.
func (a *Auditor) Run(ctx context.Context) (*AuditResult, error) {
	since := time.Now().AddDate(0, 0, -a.cfg.WindowDays)

	records, err := a.store.ListPerformanceSince(ctx, since)
	if err != nil {
		metrics.AuditRuns.WithLabelValues("failed").Inc()
		return nil, err
	}

	result := &AuditResult{
		TotalContent:    len(records),
		TopPerformers:   []TopPerformer{},
		Recommendations: []adaptation.Recommendation{},
	}

	overviewed := 0
	for _, rec := range records {
		if rec.Citations > 0 {
			result.CitedContent++
		}
		if rec.Overviews > 0 {
			overviewed++
		}
		result.AvgSemanticRelevance += rec.SemanticRelevance
	}

	if result.TotalContent > 0 {
		n := float64(result.TotalContent)
		result.CitationRate = float64(result.CitedContent) / n
		result.AIOverviewRate = float64(overviewed) / n
		result.AvgSemanticRelevance /= n
	}

	result.TopPerformers = rankTopPerformers(records)

	underperformers := filterUnderperformers(records, a.cfg.MaxUnderperformers)

	for _, rec := range underperformers {
		if err := a.limiter.Wait(ctx); err != nil {
			metrics.AuditRuns.WithLabelValues("failed").Inc()
			return nil, err
		}

		recs, err := a.recommender.Recommend(ctx, rec.ContentID)
		if err != nil {
			logger.Warn("Audit recommendation failed",
				zap.String("content_id", rec.ContentID),
				zap.Error(err),
			)
			continue
		}
		result.Recommendations = append(result.Recommendations, recs...)

		if len(result.Recommendations) >= a.cfg.MaxRecommendations {
			break
		}
	}

	if len(result.Recommendations) > a.cfg.MaxRecommendations {
		result.Recommendations = result.Recommendations[:a.cfg.MaxRecommendations]
	}

	metrics.AuditRuns.WithLabelValues("completed").Inc()

	logger.Info("Audit completed",
		zap.Int("total_content", result.TotalContent),
		zap.Int("cited_content", result.CitedContent),
		zap.Int("recommendations", len(result.Recommendations)),
	)

	return result, nil
}

// rankTopPerformers scores records by double-weighted citations, triple
// weighted overviews and ten times semantic relevance, keeping the top ten.
func rankTopPerformers(records []models.PerformanceRecord) []TopPerformer {
	performers := make([]TopPerformer, 0, len(records))
	for _, rec := range records {
		performers = append(performers, TopPerformer{
			ContentID: rec.ContentID,
			Title:     titleFromURL(rec.URL),
			Citations: rec.Citations,
			Overviews: rec.Overviews,
			Score:     float64(rec.Citations)*2 + float64(rec.Overviews)*3 + rec.SemanticRelevance*10,
		})
	}

	sort.SliceStable(performers, func(i, j int) bool {
		return performers[i].Score > performers[j].Score
	})

	if len(performers) > 10 {
		performers = performers[:10]
	}
	return performers
}

// filterUnderperformers keeps records with both few citations and few
// overview appearances, in tracking order, capped at limit.
func filterUnderperformers(records []models.PerformanceRecord, limit int) []models.PerformanceRecord {
	var out []models.PerformanceRecord
	for _, rec := range records {
		if rec.Citations < 5 && rec.Overviews < 2 {
			out = append(out, rec)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func titleFromURL(url string) string {
	parts := strings.Split(url, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return "Unknown"
}
