package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/performance"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/sqlite"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

type TrackingHandler struct {
	tracker *performance.Tracker
	hub     *EventHub
}

func NewTrackingHandler(tracker *performance.Tracker, hub *EventHub) *TrackingHandler {
	return &TrackingHandler{tracker: tracker, hub: hub}
}

func (h *TrackingHandler) TrackCitation(c *fiber.Ctx) error {
	var req struct {
		ContentID   string `json:"contentId"`
		ContentType string `json:"contentType"`
		URL         string `json:"url"`
		Source      string `json:"source"`
		Context     string `json:"context"`
		Query       string `json:"query"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ContentID == "" || req.Source == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "contentId and source are required",
		})
	}

	rec, err := h.tracker.TrackCitation(c.Context(), performance.CitationInput{
		ContentID:   req.ContentID,
		ContentType: req.ContentType,
		URL:         req.URL,
		Source:      req.Source,
		Context:     req.Context,
		Query:       req.Query,
	})
	if err != nil {
		logger.Error("Failed to track citation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to track citation",
		})
	}

	h.hub.Broadcast("citation.tracked", fiber.Map{
		"contentId": rec.ContentID,
		"source":    req.Source,
		"citations": rec.Citations,
	})

	return c.JSON(fiber.Map{
		"success":          true,
		"newCitationCount": rec.Citations,
	})
}

func (h *TrackingHandler) TrackOverview(c *fiber.Ctx) error {
	var req struct {
		ContentID string `json:"contentId"`
		Platform  string `json:"platform"`
		Query     string `json:"query"`
		Appeared  bool   `json:"appeared"`
		Position  *int   `json:"position"`
		Snippet   string `json:"snippet"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ContentID == "" || req.Platform == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "contentId and platform are required",
		})
	}

	rec, err := h.tracker.TrackOverview(c.Context(), performance.OverviewInput{
		ContentID: req.ContentID,
		Platform:  req.Platform,
		Query:     req.Query,
		Appeared:  req.Appeared,
		Position:  req.Position,
		Snippet:   req.Snippet,
	})
	if err != nil {
		if err == sqlite.ErrPerformanceNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Performance record not found",
			})
		}
		logger.Error("Failed to track overview", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to track overview",
		})
	}

	h.hub.Broadcast("overview.tracked", fiber.Map{
		"contentId": rec.ContentID,
		"platform":  req.Platform,
		"appeared":  req.Appeared,
		"overviews": rec.Overviews,
	})

	return c.JSON(fiber.Map{
		"success":        true,
		"totalOverviews": rec.Overviews,
	})
}

func (h *TrackingHandler) GetStatistics(c *fiber.Ctx) error {
	timeframe := c.Query("timeframe", "month")

	stats, err := h.tracker.GetStatistics(c.Context(), timeframe)
	if err != nil {
		logger.Error("Failed to get statistics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get statistics",
		})
	}

	return c.JSON(stats)
}

func (h *TrackingHandler) GetContentPerformance(c *fiber.Ctx) error {
	view, err := h.tracker.GetContentPerformance(c.Context(), c.Params("id"))
	if err != nil {
		if err == sqlite.ErrPerformanceNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Performance record not found",
			})
		}
		logger.Error("Failed to get content performance", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get content performance",
		})
	}

	return c.JSON(view)
}

func (h *TrackingHandler) AnalyzeContent(c *fiber.Ctx) error {
	rec, err := h.tracker.UpdateSemanticAnalysis(c.Context(), c.Params("id"))
	if err != nil {
		if err == sqlite.ErrPerformanceNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Performance record not found",
			})
		}
		logger.Error("Failed to analyze content", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to analyze content",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"analysis": fiber.Map{
			"semanticRelevance": rec.SemanticRelevance,
			"topicCoverage":     rec.TopicCoverage,
			"contentStructure":  rec.ContentStructure,
			"factualAccuracy":   rec.FactualAccuracy,
			"sourceAuthority":   rec.SourceAuthority,
			"entities":          rec.Entities,
		},
	})
}

func (h *TrackingHandler) GetRetrievalPatterns(c *fiber.Ctx) error {
	timeframe := c.Query("timeframe", "month")

	patterns, err := h.tracker.AnalyzeRetrievalPatterns(c.Context(), timeframe)
	if err != nil {
		logger.Error("Failed to analyze retrieval patterns", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to analyze retrieval patterns",
		})
	}

	return c.JSON(fiber.Map{"patterns": patterns})
}
