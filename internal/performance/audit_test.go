package performance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/adaptation"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
)

type stubRecommender struct {
	perContent map[string][]adaptation.Recommendation
	err        error
	calls      []string
}

func (s *stubRecommender) Recommend(ctx context.Context, contentID string) ([]adaptation.Recommendation, error) {
	s.calls = append(s.calls, contentID)
	if s.err != nil {
		return nil, s.err
	}
	return s.perContent[contentID], nil
}

func fastAuditConfig() AuditConfig {
	cfg := DefaultAuditConfig()
	cfg.LLMCallsPerMinute = 60000
	return cfg
}

func newTestAuditor(t *testing.T, recommender Recommender, cfg AuditConfig) (*Auditor, *sqlite.Client) {
	t.Helper()

	store, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema())

	return NewAuditor(store, recommender, cfg), store
}

func TestAudit_RatesAndTopPerformers(t *testing.T) {
	recommender := &stubRecommender{perContent: map[string][]adaptation.Recommendation{}}
	auditor, store := newTestAuditor(t, recommender, fastAuditConfig())
	ctx := context.Background()

	insertPerf(t, store, models.PerformanceRecord{
		ID: "p1", ContentID: "a1", ContentType: "article",
		URL: "https://example.com/news/staking-guide",
		Citations: 10, Overviews: 4, SemanticRelevance: 0.9,
	})
	insertPerf(t, store, models.PerformanceRecord{
		ID: "p2", ContentID: "a2", ContentType: "article",
		Citations: 0, Overviews: 0,
	})

	result, err := auditor.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalContent)
	assert.Equal(t, 1, result.CitedContent)
	assert.InDelta(t, 0.5, result.CitationRate, 0.001)
	assert.InDelta(t, 0.5, result.AIOverviewRate, 0.001)
	assert.InDelta(t, 0.45, result.AvgSemanticRelevance, 0.001)

	require.Len(t, result.TopPerformers, 2)
	top := result.TopPerformers[0]
	assert.Equal(t, "a1", top.ContentID)
	assert.Equal(t, "staking-guide", top.Title)
	// 10*2 + 4*3 + 0.9*10 = 41.
	assert.InDelta(t, 41.0, top.Score, 0.001)
}

func TestAudit_UnderperformerFilter(t *testing.T) {
	recommender := &stubRecommender{perContent: map[string][]adaptation.Recommendation{
		"low": {{ContentID: "low", Type: "structure", Priority: "high"}},
	}}
	auditor, store := newTestAuditor(t, recommender, fastAuditConfig())
	ctx := context.Background()

	// Underperformers need both few citations and few overviews.
	insertPerf(t, store, models.PerformanceRecord{
		ID: "p1", ContentID: "low", ContentType: "article", Citations: 2, Overviews: 1,
	})
	insertPerf(t, store, models.PerformanceRecord{
		ID: "p2", ContentID: "cited", ContentType: "article", Citations: 8, Overviews: 0,
	})
	insertPerf(t, store, models.PerformanceRecord{
		ID: "p3", ContentID: "overviewed", ContentType: "article", Citations: 0, Overviews: 3,
	})

	result, err := auditor.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"low"}, recommender.calls)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "low", result.Recommendations[0].ContentID)
}

func TestAudit_UnderperformerCap(t *testing.T) {
	recommender := &stubRecommender{perContent: map[string][]adaptation.Recommendation{}}
	cfg := fastAuditConfig()
	cfg.MaxUnderperformers = 3
	auditor, store := newTestAuditor(t, recommender, cfg)

	for i := 0; i < 6; i++ {
		insertPerf(t, store, models.PerformanceRecord{
			ID:        fmt.Sprintf("p%d", i),
			ContentID: fmt.Sprintf("a%d", i), ContentType: "article",
			TrackedAt: time.Now().Add(-time.Duration(i) * time.Minute),
		})
	}

	_, err := auditor.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, recommender.calls, 3)
}

func TestAudit_RecommendationCap(t *testing.T) {
	many := make([]adaptation.Recommendation, 4)
	for i := range many {
		many[i] = adaptation.Recommendation{Type: "structure", Priority: "medium"}
	}
	recommender := &stubRecommender{perContent: map[string][]adaptation.Recommendation{
		"a0": many, "a1": many, "a2": many,
	}}
	cfg := fastAuditConfig()
	cfg.MaxRecommendations = 5
	auditor, store := newTestAuditor(t, recommender, cfg)

	for i := 0; i < 3; i++ {
		insertPerf(t, store, models.PerformanceRecord{
			ID:        fmt.Sprintf("p%d", i),
			ContentID: fmt.Sprintf("a%d", i), ContentType: "article",
			TrackedAt: time.Now().Add(-time.Duration(i) * time.Minute),
		})
	}

	result, err := auditor.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Recommendations, 5)
	assert.Len(t, recommender.calls, 2)
}

func TestAudit_RecommenderFailureContinues(t *testing.T) {
	recommender := &stubRecommender{err: fmt.Errorf("llm unavailable")}
	auditor, store := newTestAuditor(t, recommender, fastAuditConfig())

	insertPerf(t, store, models.PerformanceRecord{
		ID: "p1", ContentID: "a1", ContentType: "article",
	})

	result, err := auditor.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Recommendations)
	assert.Len(t, recommender.calls, 1)
}

func TestAudit_EmptyWindow(t *testing.T) {
	recommender := &stubRecommender{}
	auditor, _ := newTestAuditor(t, recommender, fastAuditConfig())

	result, err := auditor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalContent)
	assert.Equal(t, 0.0, result.CitationRate)
	assert.Empty(t, recommender.calls)
}
