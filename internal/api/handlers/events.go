package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dayflow/dayflow-backend/internal/api/middleware"
	"github.com/dayflow/dayflow-backend/internal/events"
	"github.com/dayflow/dayflow-backend/internal/services"
)

// EventsHandler exposes the typed emission surface and the in-memory event
// history. Clients post domain facts; they never build raw event payloads.
type EventsHandler struct {
	svc *services.Services
}

// NewEventsHandler creates the events handler.
func NewEventsHandler(svc *services.Services) *EventsHandler {
	return &EventsHandler{svc: svc}
}

// EmitTaskCompleted handles POST /api/v1/events/task-completed
func (h *EventsHandler) EmitTaskCompleted(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	var req struct {
		TaskID              uuid.UUID `json:"task_id"`
		WasPredicted        bool      `json:"was_predicted"`
		PredictedCompletion *float64  `json:"predicted_completion"`
	}
	if err := c.BodyParser(&req); err != nil || req.TaskID == uuid.Nil {
		return badRequest(c, "task_id is required")
	}

	if err := h.svc.Emitter.EmitTaskCompleted(c.Context(), userID, req.TaskID, req.WasPredicted, req.PredictedCompletion); err != nil {
		return emitFailed(c)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// EmitHabitChecked handles POST /api/v1/events/habit-checked
func (h *EventsHandler) EmitHabitChecked(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	var req struct {
		HabitID          uuid.UUID `json:"habit_id"`
		StreakMaintained bool      `json:"streak_maintained"`
	}
	if err := c.BodyParser(&req); err != nil || req.HabitID == uuid.Nil {
		return badRequest(c, "habit_id is required")
	}

	if err := h.svc.Emitter.EmitHabitChecked(c.Context(), userID, req.HabitID, req.StreakMaintained); err != nil {
		return emitFailed(c)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// EmitSessionEnded handles POST /api/v1/events/session-ended
func (h *EventsHandler) EmitSessionEnded(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	var req struct {
		SessionID        uuid.UUID  `json:"session_id"`
		TaskID           *uuid.UUID `json:"task_id"`
		EstimatedMinutes *float64   `json:"estimated_minutes"`
		ActualMinutes    float64    `json:"actual_minutes"`
	}
	if err := c.BodyParser(&req); err != nil || req.SessionID == uuid.Nil {
		return badRequest(c, "session_id is required")
	}

	if err := h.svc.Emitter.EmitTimeSessionEnded(c.Context(), userID, req.SessionID, req.TaskID, req.EstimatedMinutes, req.ActualMinutes); err != nil {
		return emitFailed(c)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// EmitPlanGenerated handles POST /api/v1/events/plan-generated
func (h *EventsHandler) EmitPlanGenerated(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	var req struct {
		PlanID uuid.UUID `json:"plan_id"`
		Mode   string    `json:"mode"`
		Date   string    `json:"date"`
	}
	if err := c.BodyParser(&req); err != nil || req.PlanID == uuid.Nil {
		return badRequest(c, "plan_id is required")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}

	if err := h.svc.Emitter.EmitPlanGenerated(c.Context(), userID, req.PlanID, req.Mode, date); err != nil {
		return emitFailed(c)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// GetHistory handles GET /api/v1/events/history. The in-memory log is
// shared; the response is scoped to the authenticated user's own events.
func (h *EventsHandler) GetHistory(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthenticated(c)
	}

	limit := c.QueryInt("limit", 100)
	eventType := events.EventType(c.Query("type"))

	return c.JSON(fiber.Map{
		"events": h.svc.Bus.HistoryForUser(userID, eventType, limit),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func emitFailed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to emit event",
	})
}
