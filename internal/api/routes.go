package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/dayflow/dayflow-backend/internal/api/handlers"
	"github.com/dayflow/dayflow-backend/internal/api/middleware"
	"github.com/dayflow/dayflow-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services, jwtSecret string) {
	insights := handlers.NewInsightsHandler(svc)
	eventsHandler := handlers.NewEventsHandler(svc)
	hub := handlers.NewEventHub(svc.Bus, nil)

	api := app.Group("/api/v1", middleware.AuthRequired(jwtSecret))

	// Read contract
	api.Get("/context", insights.GetContext)
	api.Get("/tasks/:id/prediction", insights.GetPrediction)
	api.Get("/tasks/:id/relations", insights.GetRelations)
	api.Get("/insights/risk-tasks", insights.GetRiskTasks)
	api.Get("/insights/motivation", insights.GetMotivation)
	api.Get("/insights/accuracy", insights.GetAccuracy)

	// Emission contract
	api.Post("/events/task-completed", eventsHandler.EmitTaskCompleted)
	api.Post("/events/habit-checked", eventsHandler.EmitHabitChecked)
	api.Post("/events/session-ended", eventsHandler.EmitSessionEnded)
	api.Post("/events/plan-generated", eventsHandler.EmitPlanGenerated)
	api.Get("/events/history", eventsHandler.GetHistory)

	// Live event stream
	app.Use("/ws/events", middleware.AuthRequired(jwtSecret), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(hub.Serve))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "dayflow-backend",
		})
	})
}
