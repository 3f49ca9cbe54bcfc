package adaptation

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/llm"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
)

type stubAdvisor struct {
	suggestions []llm.RecommendationSuggestion
	err         error
	freshness   *llm.RefreshAnalysis
	freshErr    error

	lastContext    llm.AdaptationContext
	freshnessCalls int
}

func (s *stubAdvisor) SuggestAdaptations(ctx context.Context, in llm.AdaptationContext) ([]llm.RecommendationSuggestion, error) {
	s.lastContext = in
	return s.suggestions, s.err
}

func (s *stubAdvisor) AnalyzeFreshness(ctx context.Context, title, content string, entities []string) (*llm.RefreshAnalysis, error) {
	s.freshnessCalls++
	return s.freshness, s.freshErr
}

func boolPtr(b bool) *bool { return &b }

func newTestEngine(t *testing.T, advisor Advisor) (*Engine, *sqlite.Client) {
	t.Helper()

	store, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema())

	return NewEngine(store, advisor, nil, ""), store
}

func seedContent(t *testing.T, store *sqlite.Client, id string) {
	t.Helper()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.InsertArticle(ctx, &models.Article{
		ID: id, Title: "Staking Guide", Content: "Body.", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.MarkProcessing(ctx, id))
	chunks := []models.ContentChunk{{ID: id + "-c1", ChunkIndex: 0, ChunkType: "semantic", Content: "Body.", WordCount: 1}}
	require.NoError(t, store.SaveStructuringResult(ctx, &models.StructuredContent{ArticleID: id}, chunks, nil, nil, nil))
}

// seedRichContent stores one artifact of every family so context gathering
// has something to count.
func seedRichContent(t *testing.T, store *sqlite.Client, id string) {
	t.Helper()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.InsertArticle(ctx, &models.Article{
		ID: id, Title: "Staking Guide", Content: "Body.", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.MarkProcessing(ctx, id))

	chunks := []models.ContentChunk{
		{ID: id + "-c1", ChunkIndex: 0, ChunkType: "semantic", Content: "Body.", WordCount: 1},
		{ID: id + "-c2", ChunkIndex: 1, ChunkType: "facts", Content: "More.", WordCount: 1},
	}
	answers := []models.CanonicalAnswer{{
		ID: id + "-a1", ArticleID: id, Question: "What is staking?", Answer: "Locking tokens for rewards.",
		AnswerType: "definition", Confidence: 80,
		FactClaims: []models.FactClaim{{Type: "statistic", Context: "Yields average 4%."}},
	}}
	faqs := []models.FAQ{{ID: id + "-f1", ArticleID: id, Question: "Is staking safe?", Answer: "Mostly.", QuestionType: "comparison"}}
	glossary := []models.GlossaryEntry{{ID: id + "-g1", ArticleID: id, Term: "Validator", Definition: "A staking node."}}

	require.NoError(t, store.SaveStructuringResult(ctx, &models.StructuredContent{ArticleID: id}, chunks, answers, faqs, glossary))
}

func seedPerformance(t *testing.T, store *sqlite.Client, contentID string) {
	t.Helper()

	require.NoError(t, store.InsertPerformance(context.Background(), &models.PerformanceRecord{
		ID: contentID + "-perf", ContentID: contentID, ContentType: "article",
		Citations:        1,
		CitationSources:  []models.CitationSource{},
		CitationContexts: []string{},
		OverviewEvents:   []models.OverviewEvent{},
		TrackedAt:        time.Now(),
	}))
}

func TestRecommend_NoPerformanceRecord(t *testing.T) {
	engine, _ := newTestEngine(t, &stubAdvisor{})

	recs, err := engine.Recommend(context.Background(), "untracked")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecommend_GathersStoredArtifacts(t *testing.T) {
	advisor := &stubAdvisor{}
	engine, store := newTestEngine(t, advisor)
	seedRichContent(t, store, "a1")

	require.NoError(t, store.InsertPerformance(context.Background(), &models.PerformanceRecord{
		ID: "a1-perf", ContentID: "a1", ContentType: "article",
		Citations: 4,
		CitationSources: []models.CitationSource{
			{Source: "ChatGPT", Count: 3},
			{Source: "Perplexity", Count: 1},
		},
		CitationContexts:  []string{},
		Overviews:         2,
		OverviewEvents:    []models.OverviewEvent{},
		SemanticRelevance: 0.7,
		ContentStructure:  80,
		FactualAccuracy:   75,
		SourceAuthority:   60,
		TrackedAt:         time.Now(),
	}))

	_, err := engine.Recommend(context.Background(), "a1")
	require.NoError(t, err)

	in := advisor.lastContext
	assert.Equal(t, "Staking Guide", in.Title)
	assert.Equal(t, 4, in.Citations)
	assert.Equal(t, 2, in.Overviews)
	assert.Equal(t, []string{"ChatGPT", "Perplexity"}, in.CitationSources)
	assert.Equal(t, 0.7, in.SemanticRelevance)
	assert.Equal(t, 80.0, in.ContentStructure)
	assert.Equal(t, 75.0, in.FactualAccuracy)
	assert.Equal(t, 60.0, in.SourceAuthority)
	assert.Equal(t, 2, in.ChunkCount)
	assert.Equal(t, 1, in.AnswerCount)

	// NewsArticle + one Claim + one Quotation + FAQPage + DefinedTermSet.
	assert.Equal(t, 5, in.SchemaCount)
}

func TestRecommend_NormalizesSuggestions(t *testing.T) {
	advisor := &stubAdvisor{suggestions: []llm.RecommendationSuggestion{
		{Priority: "high", Type: "structure", Description: "Re-chunk around questions", Impact: 70},
		{Priority: "bogus", Type: "unknown", Description: "Something vague", Impact: 0, ImplementationCost: "extreme"},
		{Priority: "low", Type: "schema", Description: "Regenerate markup", Impact: 250},
	}}
	engine, store := newTestEngine(t, advisor)
	seedContent(t, store, "a1")
	seedPerformance(t, store, "a1")

	recs, err := engine.Recommend(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "Staking Guide", advisor.lastContext.Title)

	assert.Equal(t, PriorityHigh, recs[0].Priority)
	assert.Equal(t, TypeStructure, recs[0].Type)
	assert.Equal(t, 70.0, recs[0].ExpectedImpact)
	assert.Equal(t, "medium", recs[0].ImplementationCost)
	assert.True(t, recs[0].AutoApplicable)

	assert.Equal(t, PriorityMedium, recs[1].Priority)
	assert.Equal(t, TypeContent, recs[1].Type)
	assert.Equal(t, 50.0, recs[1].ExpectedImpact)
	assert.Equal(t, "medium", recs[1].ImplementationCost)
	assert.False(t, recs[1].AutoApplicable)

	assert.Equal(t, 100.0, recs[2].ExpectedImpact)
	assert.True(t, recs[2].AutoApplicable)
}

func TestRecommend_HonorsSuggestionCostAndApplicability(t *testing.T) {
	advisor := &stubAdvisor{suggestions: []llm.RecommendationSuggestion{
		{Priority: "high", Type: "structure", Description: "Needs an editor first", Impact: 60,
			ImplementationCost: "low", AutoApplicable: boolPtr(false)},
		{Priority: "medium", Type: "content", Description: "Templated intro rewrite", Impact: 40,
			ImplementationCost: "high", AutoApplicable: boolPtr(true)},
	}}
	engine, store := newTestEngine(t, advisor)
	seedContent(t, store, "a1")
	seedPerformance(t, store, "a1")

	recs, err := engine.Recommend(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "low", recs[0].ImplementationCost)
	assert.False(t, recs[0].AutoApplicable)

	assert.Equal(t, "high", recs[1].ImplementationCost)
	assert.True(t, recs[1].AutoApplicable)
}

func TestRecommend_StaleContentAddsRefresh(t *testing.T) {
	advisor := &stubAdvisor{freshness: &llm.RefreshAnalysis{
		FreshnessScore:   20,
		OutdatedSections: []string{"2023 staking yields", "merge timeline"},
	}}
	engine, store := newTestEngine(t, advisor)
	seedContent(t, store, "a1")
	seedPerformance(t, store, "a1")

	recs, err := engine.Recommend(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, PriorityUrgent, rec.Priority)
	assert.Equal(t, TypeContent, rec.Type)
	assert.Equal(t, "Refresh outdated sections: 2023 staking yields; merge timeline", rec.Description)
	assert.Equal(t, 80.0, rec.ExpectedImpact)
	assert.Equal(t, "high", rec.ImplementationCost)
	assert.False(t, rec.AutoApplicable)
	assert.Equal(t, 1, advisor.freshnessCalls)
}

func TestRecommend_ModeratelyStaleIsHighPriority(t *testing.T) {
	advisor := &stubAdvisor{freshness: &llm.RefreshAnalysis{FreshnessScore: 40}}
	engine, store := newTestEngine(t, advisor)
	seedContent(t, store, "a1")
	seedPerformance(t, store, "a1")

	recs, err := engine.Recommend(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, PriorityHigh, recs[0].Priority)
	assert.Equal(t, "Refresh outdated content", recs[0].Description)
	assert.Equal(t, 60.0, recs[0].ExpectedImpact)
}

func TestRecommend_NeutralFreshnessAddsNothing(t *testing.T) {
	advisor := &stubAdvisor{freshness: &llm.RefreshAnalysis{FreshnessScore: 50}}
	engine, store := newTestEngine(t, advisor)
	seedContent(t, store, "a1")
	seedPerformance(t, store, "a1")

	recs, err := engine.Recommend(context.Background(), "a1")
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, 1, advisor.freshnessCalls)
}

func TestRecommend_AdvisorFailureDegrades(t *testing.T) {
	advisor := &stubAdvisor{err: fmt.Errorf("llm unavailable"), freshErr: fmt.Errorf("llm unavailable")}
	engine, store := newTestEngine(t, advisor)
	seedContent(t, store, "a1")
	seedPerformance(t, store, "a1")

	recs, err := engine.Recommend(context.Background(), "a1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestApply_Structure(t *testing.T) {
	engine, store := newTestEngine(t, &stubAdvisor{})
	ctx := context.Background()
	seedContent(t, store, "a1")

	summary := engine.Apply(ctx, []Recommendation{
		{ContentID: "a1", Type: TypeStructure, AutoApplicable: true},
	})

	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, "Content re-chunking scheduled", summary.Results[0].Message)

	chunks, err := store.GetChunks(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	sc, err := store.GetStructuredContent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, sc.Status)
}

func TestApply_Metadata(t *testing.T) {
	engine, store := newTestEngine(t, &stubAdvisor{})
	ctx := context.Background()
	seedContent(t, store, "a1")

	summary := engine.Apply(ctx, []Recommendation{
		{ContentID: "a1", Type: TypeMetadata, AutoApplicable: true},
	})

	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, "Metadata optimization applied", summary.Results[0].Message)

	sc, err := store.GetStructuredContent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, sc.OptimizationScore)
}

func TestApply_Schema(t *testing.T) {
	engine, store := newTestEngine(t, &stubAdvisor{})
	ctx := context.Background()
	seedContent(t, store, "a1")

	summary := engine.Apply(ctx, []Recommendation{
		{ContentID: "a1", Type: TypeSchema, AutoApplicable: true},
	})

	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, "Schema markup generated and applied", summary.Results[0].Message)

	article, err := store.GetArticle(ctx, "a1")
	require.NoError(t, err)

	var metadata map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(article.Metadata), &metadata))
	markup, ok := metadata["schema"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "NewsArticle", markup["@type"])
	assert.Equal(t, "Staking Guide", markup["headline"])
}

func TestApply_SchemaMissingArticle(t *testing.T) {
	engine, _ := newTestEngine(t, &stubAdvisor{})

	summary := engine.Apply(context.Background(), []Recommendation{
		{ContentID: "ghost", Type: TypeSchema, AutoApplicable: true},
	})

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "Article not found", summary.Results[0].Message)
}

func TestApply_SkipsManualRecommendations(t *testing.T) {
	engine, _ := newTestEngine(t, &stubAdvisor{})

	summary := engine.Apply(context.Background(), []Recommendation{
		{ContentID: "a1", Type: TypeContent, AutoApplicable: false},
	})

	assert.Equal(t, 0, summary.Applied)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, summary.Results)
}

func TestApply_UnknownAutoTypeRejected(t *testing.T) {
	engine, _ := newTestEngine(t, &stubAdvisor{})

	summary := engine.Apply(context.Background(), []Recommendation{
		{ContentID: "a1", Type: TypeCitations, AutoApplicable: true},
	})

	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Results[0].Message, "Auto-adaptation not implemented")
}
