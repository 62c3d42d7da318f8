package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Manuloff/customer-retention/internal/api/http/handlers"
	"github.com/Manuloff/customer-retention/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Channel        *handlers.ChannelHandler
	Staff          *handlers.StaffHandler
	Cases          *handlers.CasesHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	ChannelSecret  string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/channel/events", auth.RequireChannelSecret(cfg.ChannelSecret), cfg.Channel.HandleEvent)

	authGroup := app.Group("/auth")
	authGroup.Post("/staff/login", cfg.Staff.Login)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Get("/cases", cfg.Cases.ListCases)
	staff.Get("/cases/:id", cfg.Cases.GetCase)
	staff.Post("/cases/:id/resolve", cfg.Cases.ResolveCase)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	admin.Get("/fields", cfg.Admin.Fields)
	admin.Get("/stats", cfg.Admin.Stats)

	admin.Post("/contracts", cfg.Admin.CreateContract)
	admin.Get("/contracts", cfg.Admin.ListContracts)
	admin.Get("/contracts/:id", cfg.Admin.GetContract)
	admin.Patch("/contracts/:id", cfg.Admin.UpdateContract)
	admin.Delete("/contracts/:id", cfg.Admin.DeleteContract)

	admin.Post("/offers", cfg.Admin.CreateOffer)
	admin.Get("/offers", cfg.Admin.ListOffers)
	admin.Get("/offers/:id", cfg.Admin.GetOffer)
	admin.Patch("/offers/:id", cfg.Admin.UpdateOffer)
	admin.Delete("/offers/:id", cfg.Admin.DeleteOffer)
}
