package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/eventra/eventra/internal/pkg/cache"
	"github.com/eventra/eventra/internal/pkg/database"
	"github.com/eventra/eventra/internal/pkg/env"
	"github.com/eventra/eventra/internal/pkg/payments"
	"github.com/eventra/eventra/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	cfg := payments.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid payment configuration: %v", err)
	}

	// Webhook bodies are small JSON events; anything bigger is abuse.
	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20, // 1 MiB
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app, cfg)

	return app
}
