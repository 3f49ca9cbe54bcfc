package structuring

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
)

func newServiceWithStore(t *testing.T) (*Service, *sqlite.Client) {
	t.Helper()

	store, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema())

	return NewService(store, nil), store
}

func seedArticle(t *testing.T, store *sqlite.Client, id, title, content string) {
	t.Helper()

	now := time.Now()
	require.NoError(t, store.InsertArticle(context.Background(), &models.Article{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func articleBody() string {
	var sb strings.Builder
	sb.WriteString("What is Bitcoin staking and how does it work?\n\n")
	for i := 0; i < 4; i++ {
		sb.WriteString(strings.Repeat("Bitcoin and Ethereum holders earn rewards through staking on the blockchain network. ", 20))
		sb.WriteString("\n\n")
	}
	sb.WriteString("According to CoinMetrics, staking grew 45% this year and now secures $100 billion in assets.")
	return sb.String()
}

func TestProcessArticle_Pipeline(t *testing.T) {
	svc, store := newServiceWithStore(t)
	ctx := context.Background()
	seedArticle(t, store, "a1", "What is Bitcoin Staking?", articleBody())

	result, err := svc.ProcessArticle(ctx, "a1")
	require.NoError(t, err)

	assert.Equal(t, "a1", result.ArticleID)
	assert.Greater(t, result.Chunks, 0)
	assert.Greater(t, result.CanonicalAnswers, 0)
	assert.Greater(t, result.FAQs, 0)
	assert.Greater(t, result.Glossary, 0)
	assert.GreaterOrEqual(t, result.QualityScore, 0.0)
	assert.LessOrEqual(t, result.QualityScore, 100.0)

	stored, err := store.GetStructuredContent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)

	chunks, err := store.GetChunks(ctx, "a1")
	require.NoError(t, err)
	answers, err := store.GetCanonicalAnswers(ctx, "a1")
	require.NoError(t, err)
	faqs, err := store.GetFAQs(ctx, "a1")
	require.NoError(t, err)
	glossary, err := store.GetGlossary(ctx, "a1")
	require.NoError(t, err)

	assert.Equal(t, stored.ChunkCount, len(chunks))
	assert.Equal(t, stored.AnswerCount, len(answers))
	assert.Equal(t, stored.FAQCount, len(faqs))
	assert.Equal(t, stored.GlossaryCount, len(glossary))
}

func TestProcessArticle_ReprocessReplaces(t *testing.T) {
	svc, store := newServiceWithStore(t)
	ctx := context.Background()
	seedArticle(t, store, "a1", "What is Bitcoin Staking?", articleBody())

	first, err := svc.ProcessArticle(ctx, "a1")
	require.NoError(t, err)
	second, err := svc.ProcessArticle(ctx, "a1")
	require.NoError(t, err)

	assert.Equal(t, first.Chunks, second.Chunks)

	chunks, err := store.GetChunks(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, chunks, second.Chunks)
}

func TestProcessArticle_MissingArticle(t *testing.T) {
	svc, store := newServiceWithStore(t)
	ctx := context.Background()

	_, err := svc.ProcessArticle(ctx, "ghost")
	assert.ErrorIs(t, err, sqlite.ErrArticleNotFound)

	_, err = store.GetStructuredContent(ctx, "ghost")
	assert.ErrorIs(t, err, sqlite.ErrStructureNotFound)
}

func TestGetBundle_NoCache(t *testing.T) {
	svc, store := newServiceWithStore(t)
	ctx := context.Background()
	seedArticle(t, store, "a1", "What is Bitcoin Staking?", articleBody())

	_, err := svc.ProcessArticle(ctx, "a1")
	require.NoError(t, err)

	bundle, err := svc.GetBundle(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, bundle.Structured)
	assert.Len(t, bundle.Chunks, bundle.Structured.ChunkCount)
	assert.Len(t, bundle.FAQs, bundle.Structured.FAQCount)
}

func TestGetBundle_Missing(t *testing.T) {
	svc, _ := newServiceWithStore(t)

	_, err := svc.GetBundle(context.Background(), "ghost")
	assert.ErrorIs(t, err, sqlite.ErrStructureNotFound)
}

func TestTrackMetricAndGetMetrics(t *testing.T) {
	svc, store := newServiceWithStore(t)
	ctx := context.Background()
	seedArticle(t, store, "a1", "Title", "Body text here.")

	require.NoError(t, svc.TrackMetric(ctx, "a1", "citations", 3, "ChatGPT", "cited in answer"))
	require.NoError(t, svc.TrackMetric(ctx, "a1", "citations", 6, "ChatGPT", ""))

	metrics, err := svc.GetMetrics(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	require.NotNil(t, metrics[0].ComparisonToPrevious)
	assert.InDelta(t, 100.0, *metrics[0].ComparisonToPrevious, 0.001)
}
