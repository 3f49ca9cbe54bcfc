package adaptation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/cache/redis"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/llm"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/metrics"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/schema"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

// Recommendation priorities and types.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	TypeStructure = "structure"
	TypeContent   = "content"
	TypeMetadata  = "metadata"
	TypeCitations = "citations"
	TypeSchema    = "schema"
)

// Recommendation is one adaptation proposal for a content item.
type Recommendation struct {
	ContentID          string  `json:"contentId"`
	Priority           string  `json:"priority"`
	Type               string  `json:"type"`
	Description        string  `json:"description"`
	ExpectedImpact     float64 `json:"expectedImpact"`
	ImplementationCost string  `json:"implementationCost"`
	AutoApplicable     bool    `json:"autoApplicable"`
}

// ApplyResult summarizes one applied (or rejected) adaptation.
type ApplyResult struct {
	ContentID string `json:"contentId"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
}

// ApplySummary aggregates an apply run.
type ApplySummary struct {
	Applied int           `json:"applied"`
	Failed  int           `json:"failed"`
	Results []ApplyResult `json:"results"`
}

// Advisor is the LLM surface the engine needs for recommendation generation
// and freshness checks.
type Advisor interface {
	SuggestAdaptations(ctx context.Context, in llm.AdaptationContext) ([]llm.RecommendationSuggestion, error)
	AnalyzeFreshness(ctx context.Context, title, content string, entities []string) (*llm.RefreshAnalysis, error)
}

// Engine turns performance data into adaptation recommendations and applies
// the automatic ones. cache may be nil.
type Engine struct {
	store   *sqlite.Client
	advisor Advisor
	cache   *redis.Client
	logoURL string
}

func NewEngine(store *sqlite.Client, advisor Advisor, cache *redis.Client, logoURL string) *Engine {
	return &Engine{store: store, advisor: advisor, cache: cache, logoURL: logoURL}
}

// Recommend generates adaptation recommendations for one content item from
// its performance record, stored artifacts and a freshness check. Content
// with no performance record gets none; LLM failures degrade to an empty
// list so callers never block on the model.
func (e *Engine) Recommend(ctx context.Context, contentID string) ([]Recommendation, error) {
	rec, err := e.store.GetPerformance(ctx, contentID)
	if err == sqlite.ErrPerformanceNotFound {
		return []Recommendation{}, nil
	}
	if err != nil {
		return nil, err
	}

	article, err := e.store.GetArticle(ctx, contentID)
	if err != nil {
		article = nil
	}

	suggestions, err := e.advisor.SuggestAdaptations(ctx, e.adaptationContext(ctx, contentID, article, rec))
	if err != nil {
		logger.Warn("Adaptation advisor failed", zap.Error(err))
		suggestions = nil
	}

	recommendations := make([]Recommendation, 0, len(suggestions))
	for _, s := range suggestions {
		recType := normalizeType(s.Type)
		auto := autoApplicable(recType)
		if s.AutoApplicable != nil {
			auto = *s.AutoApplicable
		}
		recommendations = append(recommendations, Recommendation{
			ContentID:          contentID,
			Priority:           normalizePriority(s.Priority),
			Type:               recType,
			Description:        s.Description,
			ExpectedImpact:     defaultImpact(s.Impact),
			ImplementationCost: normalizeCost(s.ImplementationCost),
			AutoApplicable:     auto,
		})
	}

	if freshness := e.freshnessRecommendation(ctx, contentID, article, rec); freshness != nil {
		recommendations = append(recommendations, *freshness)
	}

	metrics.RecommendationsGenerated.Add(float64(len(recommendations)))

	return recommendations, nil
}

// adaptationContext gathers the stored artifact counts and analysis scores
// that ground the recommendation prompt. Missing artifacts count as zero.
func (e *Engine) adaptationContext(ctx context.Context, contentID string, article *models.Article, rec *models.PerformanceRecord) llm.AdaptationContext {
	in := llm.AdaptationContext{
		Title:             contentID,
		Citations:         rec.Citations,
		Overviews:         rec.Overviews,
		SemanticRelevance: rec.SemanticRelevance,
		ContentStructure:  rec.ContentStructure,
		FactualAccuracy:   rec.FactualAccuracy,
		SourceAuthority:   rec.SourceAuthority,
	}
	if article != nil {
		in.Title = article.Title
		in.SchemaCount++
	}

	for _, s := range rec.CitationSources {
		in.CitationSources = append(in.CitationSources, s.Source)
	}

	if chunks, err := e.store.GetChunks(ctx, contentID); err == nil {
		in.ChunkCount = len(chunks)
	}
	if answers, err := e.store.GetCanonicalAnswers(ctx, contentID); err == nil {
		in.AnswerCount = len(answers)
		in.SchemaCount += len(schema.Claims(answers)) + len(schema.Quotations(answers))
	}
	if faqs, err := e.store.GetFAQs(ctx, contentID); err == nil && len(faqs) > 0 {
		in.SchemaCount++
	}
	if glossary, err := e.store.GetGlossary(ctx, contentID); err == nil && len(glossary) > 0 {
		in.SchemaCount++
	}

	return in
}

// freshnessRecommendation turns a low freshness score into a content-type
// recommendation. The freshness call degrades to a neutral 50 on failure,
// which stays below no threshold here.
func (e *Engine) freshnessRecommendation(ctx context.Context, contentID string, article *models.Article, rec *models.PerformanceRecord) *Recommendation {
	if article == nil {
		return nil
	}

	fresh, err := e.advisor.AnalyzeFreshness(ctx, article.Title, article.Content, rec.Entities)
	if err != nil || fresh == nil || fresh.FreshnessScore >= 50 {
		return nil
	}

	description := "Refresh outdated content"
	if len(fresh.OutdatedSections) > 0 {
		description = fmt.Sprintf("Refresh outdated sections: %s", strings.Join(fresh.OutdatedSections, "; "))
	}

	priority := PriorityHigh
	if fresh.FreshnessScore < 30 {
		priority = PriorityUrgent
	}

	return &Recommendation{
		ContentID:          contentID,
		Priority:           priority,
		Type:               TypeContent,
		Description:        description,
		ExpectedImpact:     100 - fresh.FreshnessScore,
		ImplementationCost: "high",
		AutoApplicable:     false,
	}
}

// Apply executes every auto-applicable recommendation. Structure adaptations
// schedule a re-chunk, metadata adaptations bump the optimization score,
// schema adaptations regenerate the NewsArticle markup. Other types are
// skipped or rejected per the original behavior.
func (e *Engine) Apply(ctx context.Context, recommendations []Recommendation) *ApplySummary {
	summary := &ApplySummary{}

	for _, rec := range recommendations {
		if !rec.AutoApplicable {
			continue
		}

		result := e.applyOne(ctx, rec)
		summary.Results = append(summary.Results, result)
		if result.Success {
			summary.Applied++
			metrics.AdaptationsApplied.WithLabelValues(rec.Type, "applied").Inc()
			if e.cache != nil {
				if err := e.cache.InvalidateStructured(ctx, rec.ContentID); err != nil {
					logger.Warn("Cache invalidation failed after adaptation",
						zap.String("content_id", rec.ContentID), zap.Error(err))
				}
			}
		} else {
			summary.Failed++
			metrics.AdaptationsApplied.WithLabelValues(rec.Type, "failed").Inc()
		}
	}

	return summary
}

func (e *Engine) applyOne(ctx context.Context, rec Recommendation) ApplyResult {
	switch rec.Type {
	case TypeStructure:
		if err := e.store.ClearChunks(ctx, rec.ContentID); err != nil {
			return ApplyResult{ContentID: rec.ContentID, Success: false, Message: fmt.Sprintf("Error: %s", err)}
		}
		return ApplyResult{ContentID: rec.ContentID, Success: true, Message: "Content re-chunking scheduled"}

	case TypeMetadata:
		if err := e.store.BumpOptimizationScore(ctx, rec.ContentID, 5); err != nil {
			return ApplyResult{ContentID: rec.ContentID, Success: false, Message: fmt.Sprintf("Error: %s", err)}
		}
		return ApplyResult{ContentID: rec.ContentID, Success: true, Message: "Metadata optimization applied"}

	case TypeSchema:
		return e.applySchema(ctx, rec.ContentID)

	default:
		return ApplyResult{
			ContentID: rec.ContentID,
			Success:   false,
			Message:   fmt.Sprintf("Auto-adaptation not implemented for type: %s", rec.Type),
		}
	}
}

// applySchema regenerates NewsArticle markup and merges it into the
// article's metadata under the "schema" key.
func (e *Engine) applySchema(ctx context.Context, contentID string) ApplyResult {
	article, err := e.store.GetArticle(ctx, contentID)
	if err == sqlite.ErrArticleNotFound {
		return ApplyResult{ContentID: contentID, Success: false, Message: "Article not found"}
	}
	if err != nil {
		return ApplyResult{ContentID: contentID, Success: false, Message: fmt.Sprintf("Error: %s", err)}
	}

	markup := schema.NewsArticle(article, e.logoURL)

	metadata := make(map[string]interface{})
	if article.Metadata != "" {
		if err := json.Unmarshal([]byte(article.Metadata), &metadata); err != nil {
			metadata = make(map[string]interface{})
		}
	}
	metadata["schema"] = markup

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return ApplyResult{ContentID: contentID, Success: false, Message: fmt.Sprintf("Error: %s", err)}
	}

	if err := e.store.UpdateArticleMetadata(ctx, contentID, string(encoded)); err != nil {
		return ApplyResult{ContentID: contentID, Success: false, Message: fmt.Sprintf("Error: %s", err)}
	}

	return ApplyResult{ContentID: contentID, Success: true, Message: "Schema markup generated and applied"}
}

func normalizePriority(p string) string {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return p
	default:
		return PriorityMedium
	}
}

func normalizeType(t string) string {
	switch t {
	case TypeStructure, TypeContent, TypeMetadata, TypeCitations, TypeSchema:
		return t
	default:
		return TypeContent
	}
}

func normalizeCost(cost string) string {
	switch cost {
	case "low", "medium", "high":
		return cost
	default:
		return "medium"
	}
}

func defaultImpact(impact float64) float64 {
	if impact <= 0 {
		return 50
	}
	if impact > 100 {
		return 100
	}
	return impact
}

// autoApplicable marks the adaptation types the engine can execute without
// editorial review.
func autoApplicable(t string) bool {
	return t == TypeStructure || t == TypeMetadata || t == TypeSchema
}
