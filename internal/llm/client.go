package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/metrics"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/retry"
)

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	retryConfig retry.Config
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
	JSONMode     bool
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// RefreshAnalysis is the LLM's assessment of how stale a piece of crypto
// content has become.
type RefreshAnalysis struct {
	FreshnessScore   float64  `json:"freshnessScore"`
	OutdatedSections []string `json:"outdatedSections"`
	MissingTopics    []string `json:"missingTopics"`
	Recommendations  []string `json:"recommendations"`
}

// RecommendationSuggestion is one adaptation idea for underperforming content.
// Cost and auto-applicability come from the model when present; callers fill
// in defaults otherwise.
type RecommendationSuggestion struct {
	Type               string  `json:"type"`
	Description        string  `json:"description"`
	Priority           string  `json:"priority"`
	Impact             float64 `json:"impact"`
	ImplementationCost string  `json:"implementationCost"`
	AutoApplicable     *bool   `json:"autoApplicable"`
}

// AdaptationContext summarizes a content item's stored artifacts and
// performance for the recommendation prompt.
type AdaptationContext struct {
	Title             string
	Citations         int
	Overviews         int
	CitationSources   []string
	SemanticRelevance float64
	ContentStructure  float64
	FactualAccuracy   float64
	SourceAuthority   float64
	ChunkCount        int
	AnswerCount       int
	SchemaCount       int
}

func NewClient(apiKey, model string, temperature float32, maxTokens, timeoutSec int) *Client {
	client := openai.NewClient(apiKey)

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	if timeoutSec <= 0 {
		timeoutSec = 30
	}

	logger.Info("LLM client initialized", zap.String("model", model))

	return &Client{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(timeoutSec) * time.Second,
		retryConfig: retryConfig,
	}
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.UserPrompt,
			},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var result *CompletionResponse

	err := retry.Do(ctx, c.retryConfig, func() error {
		resp, err := c.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return fmt.Errorf("failed to create completion: %w", err)
		}

		logger.Debug("LLM completion generated",
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		)

		c.recordUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

		result = &CompletionResponse{
			Content: resp.Choices[0].Message.Content,
			Usage: Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// AnalyzeFreshness asks the model which parts of an article have gone stale.
// Failures degrade to a neutral analysis so tracking keeps working without
// the LLM.
func (c *Client) AnalyzeFreshness(ctx context.Context, title, content string, entities []string) (*RefreshAnalysis, error) {
	systemPrompt := `You are a crypto-news content analyst. Assess how fresh the given article is.

Return JSON only:
{"freshnessScore": 0-100, "outdatedSections": ["..."], "missingTopics": ["..."], "recommendations": ["..."]}`

	userPrompt := fmt.Sprintf(`Title: %s

Known entities: %s

Article:
%s

Assess freshness. Return JSON only.`, title, strings.Join(entities, ", "), truncate(content, 6000))

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.2,
		MaxTokens:    600,
		JSONMode:     true,
	})
	if err != nil {
		logger.Warn("Freshness analysis degraded to neutral", zap.Error(err))
		return &RefreshAnalysis{FreshnessScore: 50}, nil
	}

	var analysis RefreshAnalysis
	if err := json.Unmarshal([]byte(resp.Content), &analysis); err != nil {
		logger.Warn("Freshness analysis returned malformed JSON", zap.Error(err))
		return &RefreshAnalysis{FreshnessScore: 50}, nil
	}

	return &analysis, nil
}

// ContentAnalysis is the model's semantic assessment of structured content.
// Relevance and coverage are 0-1, the remaining scores 0-100.
type ContentAnalysis struct {
	SemanticRelevance float64  `json:"semanticRelevance"`
	TopicCoverage     float64  `json:"topicCoverage"`
	Entities          []string `json:"entities"`
	ContentStructure  float64  `json:"contentStructure"`
	FactualAccuracy   float64  `json:"factualAccuracy"`
	SourceAuthority   float64  `json:"sourceAuthority"`
}

// AnalyzeContent scores combined chunk text for retrieval optimization.
// Unlike the advisory calls this one fails hard, since callers persist the
// result.
func (c *Client) AnalyzeContent(ctx context.Context, content string, answerCount int) (*ContentAnalysis, error) {
	systemPrompt := `You are a retrieval optimization analysis expert. Provide accurate semantic analysis in JSON format.`

	userPrompt := fmt.Sprintf(`Analyze this content for retrieval optimization. Extract:
1. Semantic relevance score (0-1): How well does it cover the topic comprehensively?
2. Topic coverage score (0-1): What percentage of relevant subtopics are covered?
3. Key entities: List main entities (coins, protocols, people, organizations)
4. Content structure score (0-100): How well is it structured for retrieval?
5. Factual accuracy score (0-100): Confidence in factual claims
6. Source authority score (0-100): Authority signals present

Content:
%s

Canonical Answers: %d

Provide response as JSON with these exact fields: semanticRelevance, topicCoverage, entities (array), contentStructure, factualAccuracy, sourceAuthority`, truncate(content, 3000), answerCount)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.3,
		MaxTokens:    800,
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}

	var analysis ContentAnalysis
	if err := json.Unmarshal([]byte(resp.Content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse content analysis: %w", err)
	}

	return &analysis, nil
}

// SuggestAdaptations asks the model for adaptation ideas for an article that
// is earning few citations, grounded in the stored artifacts and analysis
// scores. Failures degrade to no suggestions so heuristic recommendations
// still go out.
func (c *Client) SuggestAdaptations(ctx context.Context, in AdaptationContext) ([]RecommendationSuggestion, error) {
	systemPrompt := `You are a content optimization expert for a crypto-news platform. Suggest concrete adaptations that will earn the content more AI citations and overview appearances.

Adaptation types: structure, metadata, schema, content.

Return JSON only:
{"suggestions": [{"type": "structure", "description": "...", "priority": "urgent|high|medium|low", "impact": 0-100, "implementationCost": "low|medium|high", "autoApplicable": true|false}]}`

	sources := strings.Join(in.CitationSources, ", ")
	if sources == "" {
		sources = "none"
	}

	userPrompt := fmt.Sprintf(`Title: %s
Citations in the last 30 days: %d (sources: %s)
AI overview appearances: %d
Semantic relevance score: %.2f
Content structure score: %.1f
Factual accuracy score: %.1f
Source authority score: %.1f
Stored artifacts: %d chunks, %d canonical answers, %d schema markup blocks

Suggest 3 to 5 adaptations. Return JSON only.`,
		in.Title, in.Citations, sources, in.Overviews, in.SemanticRelevance,
		in.ContentStructure, in.FactualAccuracy, in.SourceAuthority,
		in.ChunkCount, in.AnswerCount, in.SchemaCount)

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  0.3,
		MaxTokens:    500,
		JSONMode:     true,
	})
	if err != nil {
		logger.Warn("Adaptation suggestions degraded to empty", zap.Error(err))
		return nil, nil
	}

	var parsed struct {
		Suggestions []RecommendationSuggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		logger.Warn("Adaptation suggestions returned malformed JSON", zap.Error(err))
		return nil, nil
	}

	return parsed.Suggestions, nil
}

// recordUsage feeds completion token counts into the metrics counters.
func (c *Client) recordUsage(promptTokens, completionTokens int) {
	metrics.LLMTokensUsed.WithLabelValues(c.model, "prompt").Add(float64(promptTokens))
	metrics.LLMTokensUsed.WithLabelValues(c.model, "completion").Add(float64(completionTokens))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
