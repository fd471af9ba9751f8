package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/teams-support-bot/internal/api/http/handlers"
	"github.com/spec-kit/teams-support-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Feedback       *handlers.FeedbackHandler
	AuthMiddleware *auth.AuthMiddleware

	// DevAuth is only set in development; it exposes the token mint.
	DevAuth *handlers.AuthHandler
}

// RegisterRoutes wires HTTP routes. Ticket endpoints require a verified
// bearer token; feedback endpoints accept unauthenticated submissions.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/api/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Delete("/:id", cfg.Tickets.Delete)

	feedback := app.Group("/api/feedback")
	feedback.Post("/", cfg.Feedback.Create)
	feedback.Get("/", cfg.Feedback.List)
	feedback.Get("/:id", cfg.Feedback.GetByID)

	if cfg.DevAuth != nil {
		app.Post("/api/auth/dev-token", cfg.DevAuth.IssueDevToken)
	}
}
