package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-gateway/internal/api/http/handlers"
	"github.com/spec-kit/storefront-gateway/internal/domain"
	"github.com/spec-kit/storefront-gateway/internal/session"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Session           *handlers.SessionHandler
	Impersonation     *handlers.ImpersonationHandler
	Payment           *handlers.PaymentHandler
	Catalog           *handlers.CatalogHandler
	SessionMiddleware *session.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Everything below resolves the session cookie first.
	app.Use(cfg.SessionMiddleware.Handle)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Session.Login)
	authGroup.Post("/logout", cfg.Session.Logout)
	authGroup.Post("/refresh", cfg.Session.Refresh)
	authGroup.Get("/session", cfg.Session.Session)
	authGroup.Post("/impersonate", cfg.Impersonation.Start)
	authGroup.Post("/impersonate/stop", cfg.Impersonation.Stop)

	app.Get("/payment/callback", cfg.Payment.Callback)

	catalogGroup := app.Group("/catalog", session.RequireSession(), session.RequireActiveSubscription())
	catalogGroup.Get("/products", cfg.Catalog.Products)
	catalogGroup.Get("/categories", cfg.Catalog.Categories)

	app.Get("/retail/products", session.RequireRole(domain.RoleRetailer), cfg.Catalog.Products)
	app.Get("/wholesale/products", session.RequireRole(domain.RoleWholesaler), cfg.Catalog.Products)
}
