package performance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
)

func insertPerf(t *testing.T, store *sqlite.Client, rec models.PerformanceRecord) {
	t.Helper()

	if rec.CitationSources == nil {
		rec.CitationSources = []models.CitationSource{}
	}
	if rec.CitationContexts == nil {
		rec.CitationContexts = []string{}
	}
	if rec.OverviewEvents == nil {
		rec.OverviewEvents = []models.OverviewEvent{}
	}
	if rec.TrackedAt.IsZero() {
		rec.TrackedAt = time.Now()
	}
	require.NoError(t, store.InsertPerformance(context.Background(), &rec))
}

func TestGetStatistics_Aggregates(t *testing.T) {
	tracker, store := newTestTracker(t, nil)
	ctx := context.Background()

	insertPerf(t, store, models.PerformanceRecord{
		ID: "p1", ContentID: "a1", ContentType: "article",
		URL: "https://example.com/a1", Citations: 12, Overviews: 1, SemanticRelevance: 0.8,
		CitationSources: []models.CitationSource{{Source: "ChatGPT", Count: 12, Contexts: []string{}, Timestamps: []string{}}},
	})
	insertPerf(t, store, models.PerformanceRecord{
		ID: "p2", ContentID: "a2", ContentType: "article",
		URL: "https://example.com/a2", Citations: 6, Overviews: 0, SemanticRelevance: 0.4,
		CitationSources: []models.CitationSource{{Source: "Perplexity", Count: 6, Contexts: []string{}, Timestamps: []string{}}},
	})
	insertPerf(t, store, models.PerformanceRecord{
		ID: "p3", ContentID: "a3", ContentType: "guide",
		URL: "https://example.com/a3", Citations: 0, Overviews: 0,
	})

	stats, err := tracker.GetStatistics(ctx, "month")
	require.NoError(t, err)

	assert.Equal(t, "month", stats.Timeframe)
	assert.Equal(t, 3, stats.TotalContent)
	assert.Equal(t, 18, stats.TotalCitations)
	assert.Equal(t, 1, stats.TotalOverviews)
	assert.InDelta(t, 6.0, stats.AvgCitationsPerContent, 0.001)
	assert.InDelta(t, 0.4, stats.AvgSemanticRelevance, 0.001)

	require.Len(t, stats.CitationsBySource, 2)
	assert.Equal(t, "ChatGPT", stats.CitationsBySource[0].Source)
	assert.Equal(t, 12, stats.CitationsBySource[0].Count)

	assert.Equal(t, 1, stats.Distribution.Excellent)
	assert.Equal(t, 1, stats.Distribution.Good)
	assert.Equal(t, 0, stats.Distribution.Fair)
	assert.Equal(t, 1, stats.Distribution.Poor)

	require.NotEmpty(t, stats.TopPerformers)
	assert.Equal(t, "a1", stats.TopPerformers[0].ContentID)
}

func TestGetStatistics_FairTier(t *testing.T) {
	tracker, store := newTestTracker(t, nil)

	insertPerf(t, store, models.PerformanceRecord{
		ID: "p1", ContentID: "a1", ContentType: "article", Citations: 2,
	})
	insertPerf(t, store, models.PerformanceRecord{
		ID: "p2", ContentID: "a2", ContentType: "article", Overviews: 1,
	})

	stats, err := tracker.GetStatistics(context.Background(), "week")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Distribution.Fair)
}

func TestGetStatistics_TimeframeFilters(t *testing.T) {
	tracker, store := newTestTracker(t, nil)

	insertPerf(t, store, models.PerformanceRecord{
		ID: "p1", ContentID: "old", ContentType: "article", Citations: 5,
		TrackedAt: time.Now().AddDate(0, 0, -10),
	})
	insertPerf(t, store, models.PerformanceRecord{
		ID: "p2", ContentID: "fresh", ContentType: "article", Citations: 1,
	})

	stats, err := tracker.GetStatistics(context.Background(), "day")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalContent)
	assert.Equal(t, 1, stats.TotalCitations)
}

func TestGetStatistics_Empty(t *testing.T) {
	tracker, _ := newTestTracker(t, nil)

	stats, err := tracker.GetStatistics(context.Background(), "month")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalContent)
	assert.Equal(t, 0.0, stats.AvgCitationsPerContent)
	assert.Empty(t, stats.TopPerformers)
}
