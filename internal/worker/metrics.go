package worker

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scholarship-api/internal/observability"
)

// NewMetricsApp returns the worker's scrape listener. It serves only /metrics.
func NewMetricsApp() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/metrics", observability.MetricsHandler())
	return app
}
