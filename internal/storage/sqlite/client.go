package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

var (
	ErrArticleNotFound     = errors.New("article not found")
	ErrPerformanceNotFound = errors.New("performance record not found")
	ErrStructureNotFound   = errors.New("structured content not found")
)

type Client struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		author_name TEXT,
		excerpt TEXT,
		image_url TEXT,
		metadata TEXT,
		published_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS structured_content (
		article_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		chunk_count INTEGER DEFAULT 0,
		answer_count INTEGER DEFAULT 0,
		faq_count INTEGER DEFAULT 0,
		glossary_count INTEGER DEFAULT 0,
		overall_quality_score REAL DEFAULT 0,
		llm_readability REAL DEFAULT 0,
		semantic_coherence REAL DEFAULT 0,
		entity_density REAL DEFAULT 0,
		fact_density REAL DEFAULT 0,
		optimization_score REAL DEFAULT 0,
		processing_time_ms INTEGER DEFAULT 0,
		error_message TEXT,
		last_processed_at INTEGER NOT NULL,
		FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_structured_status ON structured_content(status);

	CREATE TABLE IF NOT EXISTS content_chunks (
		id TEXT PRIMARY KEY,
		article_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		chunk_type TEXT NOT NULL,
		content TEXT NOT NULL,
		word_count INTEGER NOT NULL,
		semantic_score REAL,
		entities TEXT,
		keywords TEXT,
		context TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_article ON content_chunks(article_id, chunk_index);

	CREATE TABLE IF NOT EXISTS canonical_answers (
		id TEXT PRIMARY KEY,
		article_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		answer_type TEXT NOT NULL,
		confidence REAL NOT NULL,
		fact_claims TEXT,
		keywords TEXT,
		llm_format TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_answers_article ON canonical_answers(article_id);

	CREATE TABLE IF NOT EXISTS content_faqs (
		id TEXT PRIMARY KEY,
		article_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		question_type TEXT NOT NULL,
		relevance_score REAL NOT NULL,
		search_volume INTEGER,
		difficulty REAL,
		position INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_faqs_article ON content_faqs(article_id, position);

	CREATE TABLE IF NOT EXISTS content_glossary (
		id TEXT PRIMARY KEY,
		article_id TEXT NOT NULL,
		term TEXT NOT NULL,
		definition TEXT NOT NULL,
		category TEXT NOT NULL,
		complexity TEXT,
		usage_count INTEGER DEFAULT 0,
		related_terms TEXT,
		position INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_glossary_article ON content_glossary(article_id, position);

	CREATE TABLE IF NOT EXISTS rao_performance (
		id TEXT PRIMARY KEY,
		content_id TEXT NOT NULL UNIQUE,
		content_type TEXT NOT NULL,
		url TEXT,
		citations INTEGER DEFAULT 0,
		citation_sources TEXT NOT NULL,
		citation_contexts TEXT NOT NULL,
		overviews INTEGER DEFAULT 0,
		overview_events TEXT NOT NULL,
		semantic_relevance REAL DEFAULT 0,
		topic_coverage REAL DEFAULT 0,
		content_structure REAL DEFAULT 0,
		factual_accuracy REAL DEFAULT 0,
		source_authority REAL DEFAULT 0,
		entities TEXT,
		tracked_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_performance_tracked ON rao_performance(tracked_at);

	CREATE TABLE IF NOT EXISTS rao_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		article_id TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		metric_value REAL NOT NULL,
		source TEXT NOT NULL,
		context TEXT,
		comparison_to_previous REAL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_metrics_article ON rao_metrics(article_id, metric_type);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// ---------------------------------------------------------------------------
// Articles
// ---------------------------------------------------------------------------

func (c *Client) InsertArticle(ctx context.Context, a *models.Article) error {
	var publishedAt interface{}
	if a.PublishedAt != nil {
		publishedAt = a.PublishedAt.Unix()
	}

	query := `
		INSERT INTO articles (id, title, content, author_name, excerpt, image_url, metadata, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`

	_, err := c.db.ExecContext(ctx, query,
		a.ID, a.Title, a.Content, a.AuthorName, a.Excerpt, a.ImageURL, a.Metadata,
		publishedAt, a.CreatedAt.Unix(), a.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	return nil
}

func (c *Client) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	query, args, err := c.sb.
		Select("id", "title", "content", "author_name", "excerpt", "image_url", "metadata", "published_at", "created_at", "updated_at").
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var a models.Article
	var authorName, excerpt, imageURL, metadata sql.NullString
	var publishedAt sql.NullInt64
	var createdAt, updatedAt int64

	err = c.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.Title, &a.Content, &authorName, &excerpt, &imageURL, &metadata,
		&publishedAt, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	a.AuthorName = authorName.String
	a.Excerpt = excerpt.String
	a.ImageURL = imageURL.String
	a.Metadata = metadata.String
	if publishedAt.Valid {
		t := time.Unix(publishedAt.Int64, 0)
		a.PublishedAt = &t
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)

	return &a, nil
}

func (c *Client) UpdateArticleMetadata(ctx context.Context, id, metadata string) error {
	query, args, err := c.sb.
		Update("articles").
		Set("metadata", metadata).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update article metadata: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrArticleNotFound
	}

	return nil
}

// ---------------------------------------------------------------------------
// Structured content
// ---------------------------------------------------------------------------

// MarkProcessing upserts the structuring row into the processing state.
// Existing counts and scores are left as-is so a failed re-run still shows
// the last good numbers.
func (c *Client) MarkProcessing(ctx context.Context, articleID string) error {
	query := `
		INSERT INTO structured_content (article_id, status, last_processed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(article_id) DO UPDATE SET
			status = excluded.status,
			error_message = NULL,
			last_processed_at = excluded.last_processed_at
	`

	_, err := c.db.ExecContext(ctx, query, articleID, models.StatusProcessing, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to mark processing: %w", err)
	}

	return nil
}

func (c *Client) MarkFailed(ctx context.Context, articleID, message string) error {
	query, args, err := c.sb.
		Update("structured_content").
		Set("status", models.StatusFailed).
		Set("error_message", message).
		Set("last_processed_at", time.Now().Unix()).
		Where(sq.Eq{"article_id": articleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark failed: %w", err)
	}

	return nil
}

// SaveStructuringResult replaces every child family and completes the parent
// row in a single transaction. Prior artifacts survive untouched unless the
// whole transaction commits.
func (c *Client) SaveStructuringResult(
	ctx context.Context,
	sc *models.StructuredContent,
	chunks []models.ContentChunk,
	answers []models.CanonicalAnswer,
	faqs []models.FAQ,
	glossary []models.GlossaryEntry,
) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"content_chunks", "canonical_answers", "content_faqs", "content_glossary"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE article_id = ?", table), sc.ArticleID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	now := time.Now().Unix()

	for _, chunk := range chunks {
		entities := marshalJSON(chunk.Entities)
		keywords := marshalJSON(chunk.Keywords)
		contextJSON := marshalJSON(chunk.Context)

		_, err := tx.ExecContext(ctx, `
			INSERT INTO content_chunks (id, article_id, chunk_index, chunk_type, content, word_count, semantic_score, entities, keywords, context, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			chunk.ID, sc.ArticleID, chunk.ChunkIndex, chunk.ChunkType, chunk.Content,
			chunk.WordCount, chunk.SemanticScore, entities, keywords, contextJSON, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	for _, answer := range answers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO canonical_answers (id, article_id, question, answer, answer_type, confidence, fact_claims, keywords, llm_format, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			answer.ID, sc.ArticleID, answer.Question, answer.Answer, answer.AnswerType,
			answer.Confidence, marshalJSON(answer.FactClaims), marshalJSON(answer.Keywords),
			answer.LLMFormat, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert canonical answer: %w", err)
		}
	}

	for _, faq := range faqs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO content_faqs (id, article_id, question, answer, question_type, relevance_score, search_volume, difficulty, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			faq.ID, sc.ArticleID, faq.Question, faq.Answer, faq.QuestionType,
			faq.RelevanceScore, faq.SearchVolume, faq.Difficulty, faq.Position, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert FAQ: %w", err)
		}
	}

	for _, entry := range glossary {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO content_glossary (id, article_id, term, definition, category, complexity, usage_count, related_terms, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, sc.ArticleID, entry.Term, entry.Definition, entry.Category,
			entry.Complexity, entry.UsageCount, marshalJSON(entry.RelatedTerms), entry.Position, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert glossary entry: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE structured_content SET
			status = ?,
			chunk_count = ?,
			answer_count = ?,
			faq_count = ?,
			glossary_count = ?,
			overall_quality_score = ?,
			llm_readability = ?,
			semantic_coherence = ?,
			entity_density = ?,
			fact_density = ?,
			processing_time_ms = ?,
			error_message = NULL,
			last_processed_at = ?
		WHERE article_id = ?`,
		models.StatusCompleted,
		len(chunks), len(answers), len(faqs), len(glossary),
		sc.OverallQualityScore, sc.LLMReadability, sc.SemanticCoherence,
		sc.EntityDensity, sc.FactDensity, sc.ProcessingTimeMs,
		time.Now().Unix(), sc.ArticleID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete structured content: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit structuring result: %w", err)
	}

	logger.Debug("Structuring result saved",
		zap.String("article_id", sc.ArticleID),
		zap.Int("chunks", len(chunks)),
	)

	return nil
}

func (c *Client) GetStructuredContent(ctx context.Context, articleID string) (*models.StructuredContent, error) {
	query, args, err := c.sb.
		Select("article_id", "status", "chunk_count", "answer_count", "faq_count", "glossary_count",
			"overall_quality_score", "llm_readability", "semantic_coherence", "entity_density",
			"fact_density", "optimization_score", "processing_time_ms", "error_message", "last_processed_at").
		From("structured_content").
		Where(sq.Eq{"article_id": articleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var sc models.StructuredContent
	var errorMessage sql.NullString
	var lastProcessedAt int64

	err = c.db.QueryRowContext(ctx, query, args...).Scan(
		&sc.ArticleID, &sc.Status, &sc.ChunkCount, &sc.AnswerCount, &sc.FAQCount, &sc.GlossaryCount,
		&sc.OverallQualityScore, &sc.LLMReadability, &sc.SemanticCoherence, &sc.EntityDensity,
		&sc.FactDensity, &sc.OptimizationScore, &sc.ProcessingTimeMs, &errorMessage, &lastProcessedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStructureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get structured content: %w", err)
	}

	sc.ErrorMessage = errorMessage.String
	sc.LastProcessedAt = time.Unix(lastProcessedAt, 0)

	return &sc, nil
}

func (c *Client) GetChunks(ctx context.Context, articleID string) ([]models.ContentChunk, error) {
	query, args, err := c.sb.
		Select("id", "chunk_index", "chunk_type", "content", "word_count", "semantic_score", "entities", "keywords", "context", "created_at").
		From("content_chunks").
		Where(sq.Eq{"article_id": articleID}).
		OrderBy("chunk_index ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.ContentChunk
	for rows.Next() {
		var chunk models.ContentChunk
		var entities, keywords, contextJSON sql.NullString
		var createdAt int64

		err := rows.Scan(&chunk.ID, &chunk.ChunkIndex, &chunk.ChunkType, &chunk.Content,
			&chunk.WordCount, &chunk.SemanticScore, &entities, &keywords, &contextJSON, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}

		chunk.ArticleID = articleID
		unmarshalJSON(entities.String, &chunk.Entities)
		unmarshalJSON(keywords.String, &chunk.Keywords)
		unmarshalJSON(contextJSON.String, &chunk.Context)
		chunk.CreatedAt = time.Unix(createdAt, 0)
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

func (c *Client) GetCanonicalAnswers(ctx context.Context, articleID string) ([]models.CanonicalAnswer, error) {
	query, args, err := c.sb.
		Select("id", "question", "answer", "answer_type", "confidence", "fact_claims", "keywords", "llm_format", "created_at").
		From("canonical_answers").
		Where(sq.Eq{"article_id": articleID}).
		OrderBy("confidence DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get canonical answers: %w", err)
	}
	defer rows.Close()

	var answers []models.CanonicalAnswer
	for rows.Next() {
		var answer models.CanonicalAnswer
		var factClaims, keywords, llmFormat sql.NullString
		var createdAt int64

		err := rows.Scan(&answer.ID, &answer.Question, &answer.Answer, &answer.AnswerType,
			&answer.Confidence, &factClaims, &keywords, &llmFormat, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan canonical answer: %w", err)
		}

		answer.ArticleID = articleID
		unmarshalJSON(factClaims.String, &answer.FactClaims)
		unmarshalJSON(keywords.String, &answer.Keywords)
		answer.LLMFormat = llmFormat.String
		answer.CreatedAt = time.Unix(createdAt, 0)
		answers = append(answers, answer)
	}

	return answers, rows.Err()
}

func (c *Client) GetFAQs(ctx context.Context, articleID string) ([]models.FAQ, error) {
	query, args, err := c.sb.
		Select("id", "question", "answer", "question_type", "relevance_score", "search_volume", "difficulty", "position", "created_at").
		From("content_faqs").
		Where(sq.Eq{"article_id": articleID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get FAQs: %w", err)
	}
	defer rows.Close()

	var faqs []models.FAQ
	for rows.Next() {
		var faq models.FAQ
		var searchVolume sql.NullInt64
		var difficulty sql.NullFloat64
		var createdAt int64

		err := rows.Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.QuestionType,
			&faq.RelevanceScore, &searchVolume, &difficulty, &faq.Position, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan FAQ: %w", err)
		}

		faq.ArticleID = articleID
		faq.SearchVolume = int(searchVolume.Int64)
		faq.Difficulty = difficulty.Float64
		faq.CreatedAt = time.Unix(createdAt, 0)
		faqs = append(faqs, faq)
	}

	return faqs, rows.Err()
}

func (c *Client) GetGlossary(ctx context.Context, articleID string) ([]models.GlossaryEntry, error) {
	query, args, err := c.sb.
		Select("id", "term", "definition", "category", "complexity", "usage_count", "related_terms", "position", "created_at").
		From("content_glossary").
		Where(sq.Eq{"article_id": articleID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get glossary: %w", err)
	}
	defer rows.Close()

	var entries []models.GlossaryEntry
	for rows.Next() {
		var entry models.GlossaryEntry
		var complexity, relatedTerms sql.NullString
		var createdAt int64

		err := rows.Scan(&entry.ID, &entry.Term, &entry.Definition, &entry.Category,
			&complexity, &entry.UsageCount, &relatedTerms, &entry.Position, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan glossary entry: %w", err)
		}

		entry.ArticleID = articleID
		entry.Complexity = complexity.String
		unmarshalJSON(relatedTerms.String, &entry.RelatedTerms)
		entry.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ClearChunks drops an article's chunks and resets the structuring row to
// pending, which schedules a re-chunk. Used by the structure adaptation.
func (c *Client) ClearChunks(ctx context.Context, articleID string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM content_chunks WHERE article_id = ?", articleID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE structured_content SET chunk_count = 0, status = ?, last_processed_at = ? WHERE article_id = ?",
		models.StatusPending, time.Now().Unix(), articleID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset structuring status: %w", err)
	}

	return tx.Commit()
}

// BumpOptimizationScore raises the stored optimization score by delta,
// capped at 100.
func (c *Client) BumpOptimizationScore(ctx context.Context, articleID string, delta float64) error {
	res, err := c.db.ExecContext(ctx,
		"UPDATE structured_content SET optimization_score = MIN(100, optimization_score + ?), last_processed_at = ? WHERE article_id = ?",
		delta, time.Now().Unix(), articleID,
	)
	if err != nil {
		return fmt.Errorf("failed to bump optimization score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStructureNotFound
	}

	return nil
}

// DashboardCounts aggregates structuring totals for the dashboard.
type DashboardCounts struct {
	TotalStructured    int
	CompletedCount     int
	ProcessingCount    int
	FailedCount        int
	AvgQualityScore    float64
	TotalChunks        int
	TotalFAQs          int
	TotalGlossaryTerms int
}

func (c *Client) GetDashboardCounts(ctx context.Context) (*DashboardCounts, error) {
	var counts DashboardCounts

	err := c.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			COALESCE(AVG(CASE WHEN status = 'completed' THEN overall_quality_score END), 0)
		FROM structured_content`,
	).Scan(&counts.TotalStructured, &counts.CompletedCount, &counts.ProcessingCount,
		&counts.FailedCount, &counts.AvgQualityScore)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate structured content: %w", err)
	}

	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content_chunks").Scan(&counts.TotalChunks); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content_faqs").Scan(&counts.TotalFAQs); err != nil {
		return nil, fmt.Errorf("failed to count FAQs: %w", err)
	}
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content_glossary").Scan(&counts.TotalGlossaryTerms); err != nil {
		return nil, fmt.Errorf("failed to count glossary terms: %w", err)
	}

	return &counts, nil
}

// ---------------------------------------------------------------------------
// Performance records
// ---------------------------------------------------------------------------

func (c *Client) GetPerformance(ctx context.Context, contentID string) (*models.PerformanceRecord, error) {
	query, args, err := c.sb.
		Select("id", "content_id", "content_type", "url", "citations", "citation_sources",
			"citation_contexts", "overviews", "overview_events", "semantic_relevance",
			"topic_coverage", "content_structure", "factual_accuracy", "source_authority",
			"entities", "tracked_at").
		From("rao_performance").
		Where(sq.Eq{"content_id": contentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	row := c.db.QueryRowContext(ctx, query, args...)
	rec, err := scanPerformance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPerformanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get performance record: %w", err)
	}

	return rec, nil
}

func (c *Client) InsertPerformance(ctx context.Context, rec *models.PerformanceRecord) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO rao_performance (id, content_id, content_type, url, citations, citation_sources,
			citation_contexts, overviews, overview_events, semantic_relevance, topic_coverage,
			content_structure, factual_accuracy, source_authority, entities, tracked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ContentID, rec.ContentType, rec.URL, rec.Citations,
		marshalJSON(rec.CitationSources), marshalJSON(rec.CitationContexts),
		rec.Overviews, marshalJSON(rec.OverviewEvents),
		rec.SemanticRelevance, rec.TopicCoverage, rec.ContentStructure,
		rec.FactualAccuracy, rec.SourceAuthority, marshalJSON(rec.Entities),
		rec.TrackedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert performance record: %w", err)
	}

	return nil
}

// UpdatePerformanceTracking writes the counters and event lists back in a
// single statement so a citation or overview event lands atomically.
func (c *Client) UpdatePerformanceTracking(ctx context.Context, rec *models.PerformanceRecord) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE rao_performance SET
			citations = ?,
			citation_sources = ?,
			citation_contexts = ?,
			overviews = ?,
			overview_events = ?,
			tracked_at = ?
		WHERE id = ?`,
		rec.Citations, marshalJSON(rec.CitationSources), marshalJSON(rec.CitationContexts),
		rec.Overviews, marshalJSON(rec.OverviewEvents), rec.TrackedAt.Unix(), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update performance tracking: %w", err)
	}

	return nil
}

func (c *Client) UpdatePerformanceAnalysis(ctx context.Context, rec *models.PerformanceRecord) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE rao_performance SET
			semantic_relevance = ?,
			topic_coverage = ?,
			content_structure = ?,
			factual_accuracy = ?,
			source_authority = ?,
			entities = ?,
			tracked_at = ?
		WHERE id = ?`,
		rec.SemanticRelevance, rec.TopicCoverage, rec.ContentStructure,
		rec.FactualAccuracy, rec.SourceAuthority, marshalJSON(rec.Entities),
		rec.TrackedAt.Unix(), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update performance analysis: %w", err)
	}

	return nil
}

func (c *Client) ListPerformanceSince(ctx context.Context, since time.Time) ([]models.PerformanceRecord, error) {
	query, args, err := c.sb.
		Select("id", "content_id", "content_type", "url", "citations", "citation_sources",
			"citation_contexts", "overviews", "overview_events", "semantic_relevance",
			"topic_coverage", "content_structure", "factual_accuracy", "source_authority",
			"entities", "tracked_at").
		From("rao_performance").
		Where(sq.GtOrEq{"tracked_at": since.Unix()}).
		OrderBy("tracked_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list performance records: %w", err)
	}
	defer rows.Close()

	var records []models.PerformanceRecord
	for rows.Next() {
		rec, err := scanPerformance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan performance record: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPerformance(row rowScanner) (*models.PerformanceRecord, error) {
	var rec models.PerformanceRecord
	var url, citationSources, citationContexts, overviewEvents, entities sql.NullString
	var trackedAt int64

	err := row.Scan(
		&rec.ID, &rec.ContentID, &rec.ContentType, &url, &rec.Citations, &citationSources,
		&citationContexts, &rec.Overviews, &overviewEvents, &rec.SemanticRelevance,
		&rec.TopicCoverage, &rec.ContentStructure, &rec.FactualAccuracy, &rec.SourceAuthority,
		&entities, &trackedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.URL = url.String
	unmarshalJSON(citationSources.String, &rec.CitationSources)
	unmarshalJSON(citationContexts.String, &rec.CitationContexts)
	unmarshalJSON(overviewEvents.String, &rec.OverviewEvents)
	unmarshalJSON(entities.String, &rec.Entities)
	rec.TrackedAt = time.Unix(trackedAt, 0)

	return &rec, nil
}

// ---------------------------------------------------------------------------
// Raw performance metrics
// ---------------------------------------------------------------------------

// RecordPerformanceMetric stores a metric sample together with the delta
// against the latest previous sample of the same type and source.
func (c *Client) RecordPerformanceMetric(ctx context.Context, m *models.PerformanceMetric) error {
	var previous sql.NullFloat64
	err := c.db.QueryRowContext(ctx, `
		SELECT metric_value FROM rao_metrics
		WHERE article_id = ? AND metric_type = ? AND source = ?
		ORDER BY timestamp DESC LIMIT 1`,
		m.ArticleID, m.MetricType, m.Source,
	).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to look up previous metric: %w", err)
	}

	var comparison interface{}
	if previous.Valid && previous.Float64 != 0 {
		comparison = (m.MetricValue - previous.Float64) / previous.Float64 * 100
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO rao_metrics (article_id, metric_type, metric_value, source, context, comparison_to_previous, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ArticleID, m.MetricType, m.MetricValue, m.Source, m.Context, comparison, m.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}

	return nil
}

func (c *Client) GetPerformanceMetrics(ctx context.Context, articleID string, limit int) ([]models.PerformanceMetric, error) {
	query, args, err := c.sb.
		Select("id", "article_id", "metric_type", "metric_value", "source", "context", "comparison_to_previous", "timestamp").
		From("rao_metrics").
		Where(sq.Eq{"article_id": articleID}).
		OrderBy("timestamp DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	defer rows.Close()

	var metrics []models.PerformanceMetric
	for rows.Next() {
		var m models.PerformanceMetric
		var contextStr sql.NullString
		var comparison sql.NullFloat64
		var timestamp int64

		err := rows.Scan(&m.ID, &m.ArticleID, &m.MetricType, &m.MetricValue, &m.Source,
			&contextStr, &comparison, &timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}

		m.Context = contextStr.String
		if comparison.Valid {
			v := comparison.Float64
			m.ComparisonToPrevious = &v
		}
		m.Timestamp = time.Unix(timestamp, 0)
		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

func marshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func unmarshalJSON(data string, v interface{}) {
	if data == "" {
		return
	}
	_ = json.Unmarshal([]byte(data), v)
}
