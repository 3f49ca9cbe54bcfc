package structuring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/cache/redis"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/metrics"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

// Service orchestrates the full structuring pipeline for one article:
// sanitize, chunk, extract answers, FAQs and glossary, score, persist.
type Service struct {
	store *sqlite.Client
	cache *redis.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// ProcessResult summarizes a completed structuring run.
type ProcessResult struct {
	ArticleID        string  `json:"articleId"`
	Chunks           int     `json:"chunks"`
	CanonicalAnswers int     `json:"canonicalAnswers"`
	FAQs             int     `json:"faqs"`
	Glossary         int     `json:"glossary"`
	QualityScore     float64 `json:"qualityScore"`
	ProcessingTimeMs int64   `json:"processingTimeMs"`
}

// Bundle is the full structured view of one article.
type Bundle struct {
	Structured *models.StructuredContent `json:"structured"`
	Chunks     []models.ContentChunk     `json:"chunks"`
	Answers    []models.CanonicalAnswer  `json:"canonicalAnswers"`
	FAQs       []models.FAQ              `json:"faqs"`
	Glossary   []models.GlossaryEntry    `json:"glossary"`
}

// NewService builds a structuring service. cache may be nil, in which case
// reads always go to the store.
func NewService(store *sqlite.Client, cache *redis.Client) *Service {
	return &Service{
		store: store,
		cache: cache,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) articleLock(articleID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[articleID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[articleID] = lock
	}
	return lock
}

// ProcessArticle runs the pipeline end to end. Concurrent calls for the same
// article serialize; a failed run marks the status row failed but leaves the
// previous run's artifacts in place.
func (s *Service) ProcessArticle(ctx context.Context, articleID string) (*ProcessResult, error) {
	lock := s.articleLock(articleID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		metrics.StructuringTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	if err := s.store.MarkProcessing(ctx, articleID); err != nil {
		return nil, err
	}

	text := SanitizeContent(article.Content)

	chunks := ChunkContent(articleID, text)
	answers := GenerateCanonicalAnswers(articleID, article.Title, text)
	faqs := GenerateFAQs(articleID, article.Title, text)
	glossary := GenerateGlossary(articleID, text)

	scores := ComputeQualityScores(text, chunks, answers, faqs, glossary)
	elapsed := time.Since(start)

	sc := &models.StructuredContent{
		ArticleID:           articleID,
		OverallQualityScore: scores.Overall,
		LLMReadability:      scores.LLMReadability,
		SemanticCoherence:   scores.SemanticCoherence,
		EntityDensity:       scores.EntityDensity,
		FactDensity:         scores.FactDensity,
		ProcessingTimeMs:    elapsed.Milliseconds(),
	}

	if err := s.store.SaveStructuringResult(ctx, sc, chunks, answers, faqs, glossary); err != nil {
		s.fail(ctx, articleID, err)
		return nil, fmt.Errorf("failed to save structuring result: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateStructured(ctx, articleID); err != nil {
			logger.Warn("Failed to invalidate structured cache", zap.Error(err))
		}
	}

	metrics.StructuringTotal.WithLabelValues("completed").Inc()
	metrics.StructuringDuration.Observe(elapsed.Seconds())
	metrics.ChunksPerArticle.Observe(float64(len(chunks)))
	metrics.QualityScore.Observe(scores.Overall)

	logger.Info("Article structured",
		zap.String("article_id", articleID),
		zap.Int("chunks", len(chunks)),
		zap.Int("faqs", len(faqs)),
		zap.Float64("quality_score", scores.Overall),
		zap.Duration("elapsed", elapsed),
	)

	return &ProcessResult{
		ArticleID:        articleID,
		Chunks:           len(chunks),
		CanonicalAnswers: len(answers),
		FAQs:             len(faqs),
		Glossary:         len(glossary),
		QualityScore:     scores.Overall,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}, nil
}

func (s *Service) fail(ctx context.Context, articleID string, cause error) {
	metrics.StructuringTotal.WithLabelValues("failed").Inc()
	if err := s.store.MarkFailed(ctx, articleID, cause.Error()); err != nil {
		logger.Error("Failed to record structuring failure",
			zap.String("article_id", articleID),
			zap.Error(err),
		)
	}
}

// GetBundle returns the full structured view, read through the cache.
func (s *Service) GetBundle(ctx context.Context, articleID string) (*Bundle, error) {
	if s.cache != nil {
		var cached Bundle
		hit, err := s.cache.GetStructured(ctx, articleID, &cached)
		if err != nil {
			logger.Warn("Structured cache read failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("structured").Inc()
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("structured").Inc()
	}

	structured, err := s.store.GetStructuredContent(ctx, articleID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.store.GetChunks(ctx, articleID)
	if err != nil {
		return nil, err
	}
	answers, err := s.store.GetCanonicalAnswers(ctx, articleID)
	if err != nil {
		return nil, err
	}
	faqs, err := s.store.GetFAQs(ctx, articleID)
	if err != nil {
		return nil, err
	}
	glossary, err := s.store.GetGlossary(ctx, articleID)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{
		Structured: structured,
		Chunks:     chunks,
		Answers:    answers,
		FAQs:       faqs,
		Glossary:   glossary,
	}

	if s.cache != nil {
		if err := s.cache.SetStructured(ctx, articleID, bundle); err != nil {
			logger.Warn("Structured cache write failed", zap.Error(err))
		}
	}

	return bundle, nil
}

func (s *Service) GetStructuredContent(ctx context.Context, articleID string) (*models.StructuredContent, error) {
	return s.store.GetStructuredContent(ctx, articleID)
}

func (s *Service) GetChunks(ctx context.Context, articleID string) ([]models.ContentChunk, error) {
	return s.store.GetChunks(ctx, articleID)
}

func (s *Service) GetCanonicalAnswers(ctx context.Context, articleID string) ([]models.CanonicalAnswer, error) {
	return s.store.GetCanonicalAnswers(ctx, articleID)
}

func (s *Service) GetFAQs(ctx context.Context, articleID string) ([]models.FAQ, error) {
	return s.store.GetFAQs(ctx, articleID)
}

func (s *Service) GetGlossary(ctx context.Context, articleID string) ([]models.GlossaryEntry, error) {
	return s.store.GetGlossary(ctx, articleID)
}

func (s *Service) GetDashboardStats(ctx context.Context) (*sqlite.DashboardCounts, error) {
	return s.store.GetDashboardCounts(ctx)
}

// TrackMetric records a raw performance metric sample for an article.
func (s *Service) TrackMetric(ctx context.Context, articleID, metricType string, value float64, source, context string) error {
	return s.store.RecordPerformanceMetric(ctx, &models.PerformanceMetric{
		ArticleID:   articleID,
		MetricType:  metricType,
		MetricValue: value,
		Source:      source,
		Context:     context,
		Timestamp:   time.Now(),
	})
}

func (s *Service) GetMetrics(ctx context.Context, articleID string) ([]models.PerformanceMetric, error) {
	return s.store.GetPerformanceMetrics(ctx, articleID, 50)
}
