package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dayflow/dayflow-backend/internal/api/middleware"
	"github.com/dayflow/dayflow-backend/internal/insight"
	"github.com/dayflow/dayflow-backend/internal/services"
)

// InsightsHandler serves the read contract: context bundles, predictions,
// risk summaries, motivation and task relations.
type InsightsHandler struct {
	svc *services.Services
}

// NewInsightsHandler creates the insights handler.
func NewInsightsHandler(svc *services.Services) *InsightsHandler {
	return &InsightsHandler{svc: svc}
}

// GetContext handles GET /api/v1/context
func (h *InsightsHandler) GetContext(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	date, err := parseDateQuery(c, "date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}

	bundle := h.svc.Aggregator.BuildContextBundle(c.Context(), userID, date)
	return c.JSON(bundle)
}

// GetPrediction handles GET /api/v1/tasks/:id/prediction
func (h *InsightsHandler) GetPrediction(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	prediction, err := h.svc.Predictor.PredictTaskCompletion(c.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, insight.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to predict task completion",
		})
	}

	return c.JSON(prediction)
}

// GetRiskTasks handles GET /api/v1/insights/risk-tasks
func (h *InsightsHandler) GetRiskTasks(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	date, err := parseDateQuery(c, "date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date, expected YYYY-MM-DD",
		})
	}
	if date.IsZero() {
		date = time.Now()
	}

	summary, err := h.svc.Predictor.IdentifyRiskTasks(c.Context(), userID, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to identify risk tasks",
		})
	}

	return c.JSON(summary)
}

// GetMotivation handles GET /api/v1/insights/motivation
func (h *InsightsHandler) GetMotivation(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	message := h.svc.Motivator.GenerateMotivation(c.Context(), userID, c.Query("context", insight.TimingContextual))
	return c.JSON(message)
}

// GetRelations handles GET /api/v1/tasks/:id/relations
func (h *InsightsHandler) GetRelations(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	relations, err := h.svc.Relations.GetTaskRelations(c.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, insight.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve task relations",
		})
	}

	return c.JSON(relations)
}

// GetAccuracy handles GET /api/v1/insights/accuracy
func (h *InsightsHandler) GetAccuracy(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	model, err := h.svc.Learner.GetPersonalizationModel(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load personalization model",
		})
	}
	overall, err := h.svc.Learner.GetOverallAccuracy(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute overall accuracy",
		})
	}

	return c.JSON(fiber.Map{
		"overall_accuracy": overall,
		"model":            model,
	})
}

func parseDateQuery(c *fiber.Ctx, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "User not authenticated",
	})
}
