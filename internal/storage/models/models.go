package models

import "time"

// Structuring status values for StructuredContent.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Article is the immutable input owned by the content-management subsystem.
type Article struct {
	ID          string
	Title       string
	Content     string
	AuthorName  string
	Excerpt     string
	ImageURL    string
	Metadata    string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StructuredContent is the per-article structuring summary row, owned
// exclusively by the orchestrator.
type StructuredContent struct {
	ArticleID           string
	Status              string
	ChunkCount          int
	AnswerCount         int
	FAQCount            int
	GlossaryCount       int
	OverallQualityScore float64
	LLMReadability      float64
	SemanticCoherence   float64
	EntityDensity       float64
	FactDensity         float64
	OptimizationScore   float64
	ProcessingTimeMs    int64
	ErrorMessage        string
	LastProcessedAt     time.Time
}

// ChunkContext carries 100-char windows from the neighboring paragraphs.
type ChunkContext struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// ContentChunk is one ordered retrieval unit of an article.
type ContentChunk struct {
	ID            string
	ArticleID     string
	ChunkIndex    int
	ChunkType     string
	Content       string
	WordCount     int
	SemanticScore float64
	Entities      []string
	Keywords      []string
	Context       ChunkContext
	CreatedAt     time.Time
}

// FactClaim is a typed factual statement extracted from answer text.
type FactClaim struct {
	Type    string `json:"type"`
	Value   string `json:"value,omitempty"`
	Source  string `json:"source,omitempty"`
	Context string `json:"context"`
}

// CanonicalAnswer is a curated question/answer pair quotable by an LLM.
type CanonicalAnswer struct {
	ID         string
	ArticleID  string
	Question   string
	Answer     string
	AnswerType string
	Confidence float64
	FactClaims []FactClaim
	Keywords   []string
	LLMFormat  string
	CreatedAt  time.Time
}

// FAQ is a generated question/answer entry with heuristic demand scores.
type FAQ struct {
	ID             string
	ArticleID      string
	Question       string
	Answer         string
	QuestionType   string
	RelevanceScore float64
	SearchVolume   int
	Difficulty     float64
	Position       int
	CreatedAt      time.Time
}

// GlossaryEntry is a dictionary term found in the article body.
type GlossaryEntry struct {
	ID           string
	ArticleID    string
	Term         string
	Definition   string
	Category     string
	Complexity   string
	UsageCount   int
	RelatedTerms []string
	Position     int
	CreatedAt    time.Time
}

// CitationSource is a per-source counter inside a performance record.
type CitationSource struct {
	Source     string   `json:"source"`
	Count      int      `json:"count"`
	Contexts   []string `json:"contexts"`
	Timestamps []string `json:"timestamps"`
}

// OverviewEvent is one AI-overview appearance check.
type OverviewEvent struct {
	Platform  string `json:"platform"`
	Query     string `json:"query"`
	Appeared  bool   `json:"appeared"`
	Position  *int   `json:"position"`
	Snippet   string `json:"snippet,omitempty"`
	Timestamp string `json:"timestamp"`
}

// PerformanceRecord tracks external AI citations and overview appearances
// for one content item. Created lazily on the first citation event and
// updated incrementally, never replaced wholesale.
type PerformanceRecord struct {
	ID               string
	ContentID        string
	ContentType      string
	URL              string
	Citations        int
	CitationSources  []CitationSource
	CitationContexts []string
	Overviews        int
	OverviewEvents   []OverviewEvent

	SemanticRelevance float64
	TopicCoverage     float64
	ContentStructure  float64
	FactualAccuracy   float64
	SourceAuthority   float64
	Entities          []string

	TrackedAt time.Time
}

// PerformanceMetric is a raw tracked metric sample with comparison to the
// previous sample of the same type and source.
type PerformanceMetric struct {
	ID                   int64
	ArticleID            string
	MetricType           string
	MetricValue          float64
	Source               string
	Context              string
	ComparisonToPrevious *float64
	Timestamp            time.Time
}
