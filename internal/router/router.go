package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scholarship-api/internal/config"
	"github.com/noah-isme/scholarship-api/internal/handler"
	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/middleware"
	"github.com/noah-isme/scholarship-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ApplicationHandler  *handler.ApplicationHandler
	MatchingHandler     *handler.MatchingHandler
	AdminHandler        *handler.AdminHandler
	DisbursementHandler *handler.DisbursementHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	applications := api.Group("/applications", jwtMiddleware)
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.Register(applications, handler.ApplicationGuards{
			Student:     middleware.RequireRole(lifecycle.RoleStudent),
			Reviewer:    middleware.RequireRole(lifecycle.RoleReviewer, lifecycle.RoleAdmin),
			CreateLimit: middleware.RateLimit("applications:create", cfg.CreateRateLimit, time.Minute),
		})
	}

	if deps.MatchingHandler != nil {
		scholarships := api.Group("/scholarships", jwtMiddleware, middleware.RequireRole(lifecycle.RoleStudent))
		deps.MatchingHandler.Register(scholarships)
	}

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(lifecycle.RoleAdmin))
	if deps.AdminHandler != nil {
		deps.AdminHandler.Register(admin)
	}

	if deps.DisbursementHandler != nil {
		deps.DisbursementHandler.Register(applications, admin)
	}
}
