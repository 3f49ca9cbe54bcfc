package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/adaptation"
	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/performance"
	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

type AdaptationHandler struct {
	engine  *adaptation.Engine
	auditor *performance.Auditor
	hub     *EventHub
}

func NewAdaptationHandler(engine *adaptation.Engine, auditor *performance.Auditor, hub *EventHub) *AdaptationHandler {
	return &AdaptationHandler{
		engine:  engine,
		auditor: auditor,
		hub:     hub,
	}
}

func (h *AdaptationHandler) Recommend(c *fiber.Ctx) error {
	contentID := c.Params("id")

	recommendations, err := h.engine.Recommend(c.Context(), contentID)
	if err != nil {
		logger.Error("Failed to generate recommendations", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate recommendations",
		})
	}

	return c.JSON(fiber.Map{
		"contentId":       contentID,
		"recommendations": recommendations,
	})
}

func (h *AdaptationHandler) Apply(c *fiber.Ctx) error {
	var req struct {
		Recommendations []adaptation.Recommendation `json:"recommendations"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Recommendations) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one recommendation is required",
		})
	}

	summary := h.engine.Apply(c.Context(), req.Recommendations)

	h.hub.Broadcast("adaptations.applied", summary)

	return c.JSON(summary)
}

func (h *AdaptationHandler) RunAudit(c *fiber.Ctx) error {
	result, err := h.auditor.Run(c.Context())
	if err != nil {
		logger.Error("Audit failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Audit failed",
		})
	}

	h.hub.Broadcast("audit.completed", fiber.Map{
		"totalContent":    result.TotalContent,
		"citedContent":    result.CitedContent,
		"recommendations": len(result.Recommendations),
	})

	return c.JSON(result)
}
