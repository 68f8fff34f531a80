package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts the API, health and metrics routes on app.
func (h *Handler) Register(app *fiber.App, reg *prometheus.Registry) {
	if reg != nil {
		app.Use(NewMetricsBuilder(reg).Build())
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Post("/resume", h.GenerateResume)
	api.Post("/export", h.Export)
	api.Post("/export/jobs", h.StartExport)
	api.Get("/export/jobs/:id", h.JobStatus)
	api.Get("/export/jobs/:id/download", h.DownloadExport)
}
