package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/schema"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/structuring"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

type StructuringHandler struct {
	service *structuring.Service
	store   *sqlite.Client
	hub     *EventHub
}

func NewStructuringHandler(service *structuring.Service, store *sqlite.Client, hub *EventHub) *StructuringHandler {
	return &StructuringHandler{
		service: service,
		store:   store,
		hub:     hub,
	}
}

func (h *StructuringHandler) UpsertArticle(c *fiber.Ctx) error {
	var req struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Content     string `json:"content"`
		AuthorName  string `json:"authorName"`
		Excerpt     string `json:"excerpt"`
		ImageURL    string `json:"imageUrl"`
		PublishedAt string `json:"publishedAt"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title and content are required",
		})
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	now := time.Now()
	article := &models.Article{
		ID:         req.ID,
		Title:      req.Title,
		Content:    req.Content,
		AuthorName: req.AuthorName,
		Excerpt:    req.Excerpt,
		ImageURL:   req.ImageURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if req.PublishedAt != "" {
		if published, err := time.Parse(time.RFC3339, req.PublishedAt); err == nil {
			article.PublishedAt = &published
		}
	}

	if err := h.store.InsertArticle(c.Context(), article); err != nil {
		logger.Error("Failed to upsert article", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save article",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": article.ID,
	})
}

func (h *StructuringHandler) ProcessArticle(c *fiber.Ctx) error {
	articleID := c.Params("id")

	result, err := h.service.ProcessArticle(c.Context(), articleID)
	if err != nil {
		if err == sqlite.ErrArticleNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Article not found",
			})
		}
		logger.Error("Failed to process article", zap.String("article_id", articleID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process article",
		})
	}

	h.hub.Broadcast("structuring.completed", result)

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

func (h *StructuringHandler) GetStructure(c *fiber.Ctx) error {
	bundle, err := h.service.GetBundle(c.Context(), c.Params("id"))
	if err != nil {
		if err == sqlite.ErrStructureNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Structured content not found",
			})
		}
		logger.Error("Failed to get structured content", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get structured content",
		})
	}

	return c.JSON(bundle)
}

func (h *StructuringHandler) GetChunks(c *fiber.Ctx) error {
	chunks, err := h.service.GetChunks(c.Context(), c.Params("id"))
	if err != nil {
		logger.Error("Failed to get chunks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get chunks",
		})
	}

	return c.JSON(fiber.Map{"chunks": chunks})
}

func (h *StructuringHandler) GetCanonicalAnswers(c *fiber.Ctx) error {
	answers, err := h.service.GetCanonicalAnswers(c.Context(), c.Params("id"))
	if err != nil {
		logger.Error("Failed to get canonical answers", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get canonical answers",
		})
	}

	return c.JSON(fiber.Map{"answers": answers})
}

func (h *StructuringHandler) GetFAQs(c *fiber.Ctx) error {
	faqs, err := h.service.GetFAQs(c.Context(), c.Params("id"))
	if err != nil {
		logger.Error("Failed to get FAQs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get FAQs",
		})
	}

	return c.JSON(fiber.Map{"faqs": faqs})
}

func (h *StructuringHandler) GetGlossary(c *fiber.Ctx) error {
	glossary, err := h.service.GetGlossary(c.Context(), c.Params("id"))
	if err != nil {
		logger.Error("Failed to get glossary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get glossary",
		})
	}

	return c.JSON(fiber.Map{"glossary": glossary})
}

// GetSchemaMarkup builds the full JSON-LD set for an article from its
// stored artifacts.
func (h *StructuringHandler) GetSchemaMarkup(c *fiber.Ctx) error {
	articleID := c.Params("id")

	article, err := h.store.GetArticle(c.Context(), articleID)
	if err != nil {
		if err == sqlite.ErrArticleNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Article not found",
			})
		}
		logger.Error("Failed to get article", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get article",
		})
	}

	answers, err := h.service.GetCanonicalAnswers(c.Context(), articleID)
	if err != nil {
		logger.Error("Failed to get canonical answers", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build schema markup",
		})
	}
	faqs, err := h.service.GetFAQs(c.Context(), articleID)
	if err != nil {
		logger.Error("Failed to get FAQs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build schema markup",
		})
	}
	glossary, err := h.service.GetGlossary(c.Context(), articleID)
	if err != nil {
		logger.Error("Failed to get glossary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build schema markup",
		})
	}

	return c.JSON(fiber.Map{
		"newsArticle":    schema.NewsArticle(article, ""),
		"faqPage":        schema.FAQPage(faqs),
		"definedTermSet": schema.DefinedTermSet(articleID, glossary),
		"claims":         schema.Claims(answers),
		"quotations":     schema.Quotations(answers),
	})
}

func (h *StructuringHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.Context())
	if err != nil {
		logger.Error("Failed to get dashboard stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get dashboard stats",
		})
	}

	return c.JSON(fiber.Map{
		"totalStructured":    stats.TotalStructured,
		"completedCount":     stats.CompletedCount,
		"processingCount":    stats.ProcessingCount,
		"failedCount":        stats.FailedCount,
		"avgQualityScore":    stats.AvgQualityScore,
		"totalChunks":        stats.TotalChunks,
		"totalFAQs":          stats.TotalFAQs,
		"totalGlossaryTerms": stats.TotalGlossaryTerms,
		"timestamp":          time.Now().Unix(),
	})
}

func (h *StructuringHandler) TrackMetric(c *fiber.Ctx) error {
	var req struct {
		ArticleID   string  `json:"articleId"`
		MetricType  string  `json:"metricType"`
		MetricValue float64 `json:"metricValue"`
		Source      string  `json:"source"`
		Context     string  `json:"context"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ArticleID == "" || req.MetricType == "" || req.Source == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "articleId, metricType and source are required",
		})
	}

	if err := h.service.TrackMetric(c.Context(), req.ArticleID, req.MetricType, req.MetricValue, req.Source, req.Context); err != nil {
		logger.Error("Failed to track metric", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to track metric",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *StructuringHandler) GetMetrics(c *fiber.Ctx) error {
	samples, err := h.service.GetMetrics(c.Context(), c.Params("id"))
	if err != nil {
		logger.Error("Failed to get metrics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get metrics",
		})
	}

	return c.JSON(fiber.Map{"metrics": samples})
}
