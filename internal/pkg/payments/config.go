package payments

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eventra/eventra/internal/pkg/env"
)

const defaultPayPalAPIBaseURL = "https://api-m.paypal.com"

// Config carries every provider credential and flag the webhook subsystem
// needs. It is built once at startup and injected into the handlers; nothing
// in the pipeline reads ambient configuration.
type Config struct {
	Environment string `validate:"required,oneof=dev staging prod"`
	BaseURL     string `validate:"omitempty,url"`

	StripeWebhookSecret string

	PayPalClientID     string
	PayPalClientSecret string
	PayPalWebhookID    string
	PayPalAPIBaseURL   string `validate:"required,url"`

	AdminAPIKey string
}

// LoadConfig reads provider settings from the environment layer.
func LoadConfig() Config {
	return Config{
		Environment:         strings.ToLower(env.GetEnv("APP_ENV", "dev")),
		BaseURL:             strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"),
		StripeWebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		PayPalClientID:      strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
		PayPalClientSecret:  strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_SECRET", "")),
		PayPalWebhookID:     strings.TrimSpace(env.GetEnv("PAYPAL_WEBHOOK_ID", "")),
		PayPalAPIBaseURL:    strings.TrimRight(env.GetEnv("PAYPAL_API_BASE_URL", defaultPayPalAPIBaseURL), "/"),
		AdminAPIKey:         strings.TrimSpace(env.GetEnv("ADMIN_API_KEY", "")),
	}
}

func (c Config) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// IsProduction controls fail-open vs fail-closed verification behavior.
func (c Config) IsProduction() bool {
	return c.Environment == "prod"
}
