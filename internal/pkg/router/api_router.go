package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/eventra/eventra/app/controllers"
	"github.com/eventra/eventra/internal/pkg/middleware"
	"github.com/eventra/eventra/internal/pkg/payments"
)

type ApiRouter struct {
	cfg payments.Config
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())

	// Operator endpoints for manual reconciliation.
	v1 := api.Group("/v1", middleware.RequireAdminKey(h.cfg.AdminAPIKey))
	wc := controllers.GetWebhookController()
	v1.Get("/webhooks/events/:provider/:id", wc.HandleWebhookEventLookup)
	v1.Get("/webhooks/stats/:provider", wc.HandleWebhookStats)
}

func NewApiRouter(cfg payments.Config) *ApiRouter {
	return &ApiRouter{cfg: cfg}
}
