package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eventra/eventra/internal/pkg/payments"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires every route group. HttpRouter runs first so the webhook
// controller is initialized before API routes that depend on it.
func InstallRouter(app *fiber.App, cfg payments.Config) {
	setup(app, NewHttpRouter(cfg), NewApiRouter(cfg))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
