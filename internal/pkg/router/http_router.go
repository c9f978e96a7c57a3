package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eventra/eventra/app/controllers"
	"github.com/eventra/eventra/internal/pkg/payments"
)

type HttpRouter struct {
	cfg payments.Config
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize the webhook controller with its verifiers and service.
	controllers.InitializeWebhookController(h.cfg)

	wc := controllers.GetWebhookController()

	// Provider webhooks (no CSRF, signature-verified in controller).
	app.Post("/webhooks/stripe", wc.HandleStripeWebhook)
	app.Post("/webhooks/paypal", wc.HandlePayPalWebhook)

	// Liveness probe.
	app.Get("/up", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter(cfg payments.Config) *HttpRouter {
	return &HttpRouter{cfg: cfg}
}
