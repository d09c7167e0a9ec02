package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Materials      *handlers.MaterialsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	admin := protected.Group("", auth.RequireAdministrator())
	admin.Post("/actors", cfg.Auth.CreateActor)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.Report)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/dashboard", cfg.Tickets.Dashboard)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/claim", cfg.Tickets.Claim)
	tickets.Post("/:id/progress", cfg.Tickets.Progress)
	tickets.Post("/:id/complete", cfg.Tickets.Complete)
	tickets.Post("/:id/confirm", cfg.Tickets.Confirm)
	tickets.Post("/:id/finish", cfg.Tickets.Finish)
	tickets.Get("/:id/materials", cfg.Materials.List)
	tickets.Post("/:id/materials", cfg.Materials.Add)
	tickets.Post("/:id/order/confirm", cfg.Materials.ConfirmOrder)

	materials := protected.Group("/materials")
	materials.Post("/:id/confirm", cfg.Materials.Confirm)
	materials.Patch("/:id", cfg.Materials.UpdateField)
	materials.Delete("/:id", cfg.Materials.Delete)

	history := admin.Group("/history")
	history.Get("", cfg.Tickets.History)
	history.Delete("/:id", cfg.Tickets.Delete)
	history.Post("/bulk-delete", cfg.Tickets.BulkDelete)
}
