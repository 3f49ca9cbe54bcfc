package performance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/cache/redis"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/llm"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/metrics"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

// ContentAnalyzer is the LLM surface the tracker needs for semantic
// analysis.
type ContentAnalyzer interface {
	AnalyzeContent(ctx context.Context, content string, answerCount int) (*llm.ContentAnalysis, error)
}

// Tracker records external AI citations and overview appearances per content
// item. Citations lazily create the performance record; overview tracking
// requires one to exist already.
type Tracker struct {
	store    *sqlite.Client
	cache    *redis.Client
	analyzer ContentAnalyzer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type CitationInput struct {
	ContentID   string
	ContentType string
	URL         string
	Source      string
	Context     string
	Query       string
}

type OverviewInput struct {
	ContentID string
	Platform  string
	Query     string
	Appeared  bool
	Position  *int
	Snippet   string
}

// ContentPerformance is the per-content overview payload. Citation contexts
// show the first ten recorded, overview events the last ten.
type ContentPerformance struct {
	ContentID        string                  `json:"contentId"`
	ContentType      string                  `json:"contentType"`
	URL              string                  `json:"url"`
	Metrics          PerformanceMetricsView  `json:"metrics"`
	CitationSources  []models.CitationSource `json:"citationSources"`
	CitationContexts []string                `json:"citationContexts"`
	Overviews        []models.OverviewEvent  `json:"overviews"`
	Entities         []string                `json:"entities"`
	LastTracked      time.Time               `json:"lastTracked"`
}

type PerformanceMetricsView struct {
	Citations         int     `json:"llmCitations"`
	Overviews         int     `json:"aiOverviews"`
	SemanticRelevance float64 `json:"semanticRelevance"`
	TopicCoverage     float64 `json:"topicCoverage"`
	ContentStructure  float64 `json:"contentStructure"`
	FactualAccuracy   float64 `json:"factualAccuracy"`
	SourceAuthority   float64 `json:"sourceAuthority"`
}

func NewTracker(store *sqlite.Client, cache *redis.Client, analyzer ContentAnalyzer) *Tracker {
	return &Tracker{
		store:    store,
		cache:    cache,
		analyzer: analyzer,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (t *Tracker) contentLock(contentID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[contentID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[contentID] = lock
	}
	return lock
}

// TrackCitation records one AI citation. The performance record is created
// on first sight of the content; the per-source counter and the global
// counter both advance by exactly one.
func (t *Tracker) TrackCitation(ctx context.Context, in CitationInput) (*models.PerformanceRecord, error) {
	lock := t.contentLock(in.ContentID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.GetPerformance(ctx, in.ContentID)
	if err == sqlite.ErrPerformanceNotFound {
		rec = &models.PerformanceRecord{
			ID:               uuid.New().String(),
			ContentID:        in.ContentID,
			ContentType:      in.ContentType,
			URL:              in.URL,
			CitationSources:  []models.CitationSource{},
			CitationContexts: []string{},
			OverviewEvents:   []models.OverviewEvent{},
			TrackedAt:        time.Now(),
		}
		if err := t.store.InsertPerformance(ctx, rec); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)

	found := false
	for i := range rec.CitationSources {
		if rec.CitationSources[i].Source == in.Source {
			rec.CitationSources[i].Count++
			if in.Context != "" {
				rec.CitationSources[i].Contexts = append(rec.CitationSources[i].Contexts, in.Context)
			}
			rec.CitationSources[i].Timestamps = append(rec.CitationSources[i].Timestamps, now)
			found = true
			break
		}
	}
	if !found {
		source := models.CitationSource{
			Source:     in.Source,
			Count:      1,
			Contexts:   []string{},
			Timestamps: []string{now},
		}
		if in.Context != "" {
			source.Contexts = []string{in.Context}
		}
		rec.CitationSources = append(rec.CitationSources, source)
	}

	if in.Context != "" {
		rec.CitationContexts = append(rec.CitationContexts, in.Context)
	}

	rec.Citations++
	rec.TrackedAt = time.Now()

	if err := t.store.UpdatePerformanceTracking(ctx, rec); err != nil {
		return nil, err
	}

	t.invalidate(ctx, in.ContentID)
	metrics.CitationsTracked.WithLabelValues(in.Source).Inc()

	logger.Debug("AI citation tracked",
		zap.String("content_id", in.ContentID),
		zap.String("source", in.Source),
		zap.Int("citations", rec.Citations),
	)

	return rec, nil
}

// TrackOverview records an AI overview check. Every check is appended to the
// event list but only appearances advance the counter. Unknown content is an
// error, matching the asymmetry with citation tracking.
func (t *Tracker) TrackOverview(ctx context.Context, in OverviewInput) (*models.PerformanceRecord, error) {
	lock := t.contentLock(in.ContentID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.GetPerformance(ctx, in.ContentID)
	if err != nil {
		return nil, err
	}

	rec.OverviewEvents = append(rec.OverviewEvents, models.OverviewEvent{
		Platform:  in.Platform,
		Query:     in.Query,
		Appeared:  in.Appeared,
		Position:  in.Position,
		Snippet:   in.Snippet,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})

	if in.Appeared {
		rec.Overviews++
	}
	rec.TrackedAt = time.Now()

	if err := t.store.UpdatePerformanceTracking(ctx, rec); err != nil {
		return nil, err
	}

	t.invalidate(ctx, in.ContentID)
	metrics.OverviewChecks.WithLabelValues(in.Platform, fmt.Sprintf("%t", in.Appeared)).Inc()

	return rec, nil
}

// GetContentPerformance returns the per-content overview, read through the
// cache.
func (t *Tracker) GetContentPerformance(ctx context.Context, contentID string) (*ContentPerformance, error) {
	if t.cache != nil {
		var cached ContentPerformance
		hit, err := t.cache.GetPerformance(ctx, contentID, &cached)
		if err != nil {
			logger.Warn("Performance cache read failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("performance").Inc()
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("performance").Inc()
	}

	rec, err := t.store.GetPerformance(ctx, contentID)
	if err != nil {
		return nil, err
	}

	contexts := rec.CitationContexts
	if len(contexts) > 10 {
		contexts = contexts[:10]
	}

	events := rec.OverviewEvents
	if len(events) > 10 {
		events = events[len(events)-10:]
	}

	view := &ContentPerformance{
		ContentID:   rec.ContentID,
		ContentType: rec.ContentType,
		URL:         rec.URL,
		Metrics: PerformanceMetricsView{
			Citations:         rec.Citations,
			Overviews:         rec.Overviews,
			SemanticRelevance: rec.SemanticRelevance,
			TopicCoverage:     rec.TopicCoverage,
			ContentStructure:  rec.ContentStructure,
			FactualAccuracy:   rec.FactualAccuracy,
			SourceAuthority:   rec.SourceAuthority,
		},
		CitationSources:  rec.CitationSources,
		CitationContexts: contexts,
		Overviews:        events,
		Entities:         rec.Entities,
		LastTracked:      rec.TrackedAt,
	}

	if t.cache != nil {
		if err := t.cache.SetPerformance(ctx, contentID, view); err != nil {
			logger.Warn("Performance cache write failed", zap.Error(err))
		}
	}

	return view, nil
}

// UpdateSemanticAnalysis re-scores a content item's analysis fields with the
// LLM, using the article's stored chunks as input. Content with no chunks
// cannot be analyzed.
func (t *Tracker) UpdateSemanticAnalysis(ctx context.Context, contentID string) (*models.PerformanceRecord, error) {
	chunks, err := t.store.GetChunks(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no content chunks found for analysis")
	}

	answers, err := t.store.GetCanonicalAnswers(ctx, contentID)
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	fullContent := strings.Join(parts, "\n\n")

	analysis, err := t.analyzer.AnalyzeContent(ctx, fullContent, len(answers))
	if err != nil {
		return nil, fmt.Errorf("semantic analysis failed: %w", err)
	}

	lock := t.contentLock(contentID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.GetPerformance(ctx, contentID)
	if err != nil {
		return nil, err
	}

	rec.SemanticRelevance = analysis.SemanticRelevance
	rec.TopicCoverage = analysis.TopicCoverage
	rec.ContentStructure = analysis.ContentStructure
	rec.FactualAccuracy = analysis.FactualAccuracy
	rec.SourceAuthority = analysis.SourceAuthority
	rec.Entities = analysis.Entities
	rec.TrackedAt = time.Now()

	if err := t.store.UpdatePerformanceAnalysis(ctx, rec); err != nil {
		return nil, err
	}

	t.invalidate(ctx, contentID)

	logger.Info("Semantic analysis updated",
		zap.String("content_id", contentID),
		zap.Float64("semantic_relevance", rec.SemanticRelevance),
	)

	return rec, nil
}

func (t *Tracker) invalidate(ctx context.Context, contentID string) {
	if t.cache == nil {
		return
	}
	if err := t.cache.InvalidatePerformance(ctx, contentID); err != nil {
		logger.Warn("Failed to invalidate performance cache", zap.Error(err))
	}
}
