package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func insertTestArticle(t *testing.T, client *Client, id string) {
	t.Helper()

	now := time.Now()
	require.NoError(t, client.InsertArticle(context.Background(), &models.Article{
		ID:        id,
		Title:     "Bitcoin Basics",
		Content:   "Bitcoin is a digital currency.",
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func TestGetArticle_NotFound(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetArticle(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestInsertAndGetArticle(t *testing.T) {
	client := newTestClient(t)
	insertTestArticle(t, client, "a1")

	article, err := client.GetArticle(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin Basics", article.Title)
}

func TestSaveStructuringResult_ReplacesChildren(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	insertTestArticle(t, client, "a1")
	require.NoError(t, client.MarkProcessing(ctx, "a1"))

	first := []models.ContentChunk{
		{ID: "c1", ChunkIndex: 0, ChunkType: "semantic", Content: "old chunk", WordCount: 2},
		{ID: "c2", ChunkIndex: 1, ChunkType: "facts", Content: "old facts", WordCount: 2},
	}
	sc := &models.StructuredContent{ArticleID: "a1", OverallQualityScore: 70}
	require.NoError(t, client.SaveStructuringResult(ctx, sc, first, nil, nil, nil))

	second := []models.ContentChunk{
		{ID: "c3", ChunkIndex: 0, ChunkType: "semantic", Content: "new chunk", WordCount: 2},
	}
	faqs := []models.FAQ{{ID: "f1", Question: "What?", Answer: "This.", QuestionType: "what", RelevanceScore: 80}}
	require.NoError(t, client.SaveStructuringResult(ctx, sc, second, nil, faqs, nil))

	chunks, err := client.GetChunks(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "new chunk", chunks[0].Content)

	stored, err := client.GetStructuredContent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.ChunkCount)
	assert.Equal(t, 1, stored.FAQCount)
	assert.Equal(t, 0, stored.AnswerCount)
}

func TestMarkFailed_PreservesChildren(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	insertTestArticle(t, client, "a1")
	require.NoError(t, client.MarkProcessing(ctx, "a1"))

	chunks := []models.ContentChunk{{ID: "c1", ChunkIndex: 0, ChunkType: "semantic", Content: "kept", WordCount: 1}}
	sc := &models.StructuredContent{ArticleID: "a1"}
	require.NoError(t, client.SaveStructuringResult(ctx, sc, chunks, nil, nil, nil))

	require.NoError(t, client.MarkFailed(ctx, "a1", "boom"))

	stored, err := client.GetStructuredContent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Equal(t, "boom", stored.ErrorMessage)

	kept, err := client.GetChunks(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestClearChunks_ResetsStatus(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	insertTestArticle(t, client, "a1")
	require.NoError(t, client.MarkProcessing(ctx, "a1"))

	chunks := []models.ContentChunk{{ID: "c1", ChunkIndex: 0, ChunkType: "semantic", Content: "x", WordCount: 1}}
	sc := &models.StructuredContent{ArticleID: "a1"}
	require.NoError(t, client.SaveStructuringResult(ctx, sc, chunks, nil, nil, nil))

	require.NoError(t, client.ClearChunks(ctx, "a1"))

	remaining, err := client.GetChunks(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	stored, err := client.GetStructuredContent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, 0, stored.ChunkCount)
}

func TestBumpOptimizationScore_Caps(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	insertTestArticle(t, client, "a1")
	require.NoError(t, client.MarkProcessing(ctx, "a1"))
	require.NoError(t, client.SaveStructuringResult(ctx, &models.StructuredContent{ArticleID: "a1"}, nil, nil, nil, nil))

	for i := 0; i < 25; i++ {
		require.NoError(t, client.BumpOptimizationScore(ctx, "a1", 5))
	}

	stored, err := client.GetStructuredContent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.OptimizationScore)
}

func TestBumpOptimizationScore_Missing(t *testing.T) {
	client := newTestClient(t)
	err := client.BumpOptimizationScore(context.Background(), "missing", 5)
	assert.ErrorIs(t, err, ErrStructureNotFound)
}

func TestPerformanceRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	rec := &models.PerformanceRecord{
		ID:          "p1",
		ContentID:   "a1",
		ContentType: "article",
		URL:         "https://example.com/a1",
		Citations:   2,
		CitationSources: []models.CitationSource{
			{Source: "ChatGPT", Count: 2, Contexts: []string{"ctx"}, Timestamps: []string{"2026-01-01T00:00:00Z"}},
		},
		CitationContexts: []string{"ctx"},
		OverviewEvents:   []models.OverviewEvent{},
		TrackedAt:        time.Now(),
	}
	require.NoError(t, client.InsertPerformance(ctx, rec))

	loaded, err := client.GetPerformance(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Citations)
	require.Len(t, loaded.CitationSources, 1)
	assert.Equal(t, "ChatGPT", loaded.CitationSources[0].Source)
}

func TestGetPerformance_NotFound(t *testing.T) {
	client := newTestClient(t)
	_, err := client.GetPerformance(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPerformanceNotFound)
}

func TestListPerformanceSince(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	old := &models.PerformanceRecord{
		ID: "p1", ContentID: "a1", ContentType: "article",
		CitationSources: []models.CitationSource{}, CitationContexts: []string{},
		OverviewEvents: []models.OverviewEvent{},
		TrackedAt:      time.Now().AddDate(0, 0, -60),
	}
	recent := &models.PerformanceRecord{
		ID: "p2", ContentID: "a2", ContentType: "article",
		CitationSources: []models.CitationSource{}, CitationContexts: []string{},
		OverviewEvents: []models.OverviewEvent{},
		TrackedAt:      time.Now(),
	}
	require.NoError(t, client.InsertPerformance(ctx, old))
	require.NoError(t, client.InsertPerformance(ctx, recent))

	records, err := client.ListPerformanceSince(ctx, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a2", records[0].ContentID)
}

func TestRecordPerformanceMetric_Comparison(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := &models.PerformanceMetric{
		ArticleID: "a1", MetricType: "citations", MetricValue: 10,
		Source: "ChatGPT", Timestamp: time.Now().Add(-time.Hour),
	}
	require.NoError(t, client.RecordPerformanceMetric(ctx, first))

	second := &models.PerformanceMetric{
		ArticleID: "a1", MetricType: "citations", MetricValue: 15,
		Source: "ChatGPT", Timestamp: time.Now(),
	}
	require.NoError(t, client.RecordPerformanceMetric(ctx, second))

	metrics, err := client.GetPerformanceMetrics(ctx, "a1", 50)
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	latest := metrics[0]
	require.NotNil(t, latest.ComparisonToPrevious)
	assert.InDelta(t, 50.0, *latest.ComparisonToPrevious, 0.001)
}

func TestDashboardCounts(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	insertTestArticle(t, client, "a1")
	require.NoError(t, client.MarkProcessing(ctx, "a1"))

	sc := &models.StructuredContent{ArticleID: "a1", OverallQualityScore: 80}
	chunks := []models.ContentChunk{{ID: "c1", ChunkIndex: 0, ChunkType: "semantic", Content: "x", WordCount: 1}}
	require.NoError(t, client.SaveStructuringResult(ctx, sc, chunks, nil, nil, nil))

	counts, err := client.GetDashboardCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.TotalStructured)
	assert.Equal(t, 1, counts.CompletedCount)
	assert.Equal(t, 1, counts.TotalChunks)
	assert.Equal(t, 80.0, counts.AvgQualityScore)
}
