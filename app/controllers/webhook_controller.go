package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventra/eventra/internal/pkg/database"
	"github.com/eventra/eventra/internal/pkg/mail"
	"github.com/eventra/eventra/internal/pkg/metrics/counter"
	"github.com/eventra/eventra/internal/pkg/payments"
)

// WebhookController owns the provider webhook endpoints. Configuration is
// injected once at startup; handlers keep no other state, all coordination
// happens through the store.
type WebhookController struct {
	cfg       payments.Config
	service   *payments.Service
	verifiers map[string]payments.Verifier

	// recordDelivery bumps the per-provider delivery counters. Best-effort,
	// never fails a request.
	recordDelivery func(provider, outcome string)
}

var webhookController *WebhookController

// InitializeWebhookController wires the controller with verifiers and the
// payments service. Must run after database setup.
func InitializeWebhookController(cfg payments.Config) {
	webhookController = NewWebhookController(
		cfg,
		payments.NewServiceFromDB(database.GetDB(), payments.NotifierFunc(mail.SendMail), cfg),
		map[string]payments.Verifier{
			payments.ProviderStripe: payments.NewStripeVerifier(cfg),
			payments.ProviderPayPal: payments.NewPayPalVerifier(cfg),
		},
	)
	webhookController.recordDelivery = func(provider, outcome string) {
		if err := counter.AddWebhookDelivery(provider, outcome); err != nil {
			fiberlog.Debugf("[Webhook] delivery counter update failed: %v", err)
		}
	}
}

// NewWebhookController builds a controller from explicit collaborators.
func NewWebhookController(cfg payments.Config, service *payments.Service, verifiers map[string]payments.Verifier) *WebhookController {
	return &WebhookController{
		cfg:            cfg,
		service:        service,
		verifiers:      verifiers,
		recordDelivery: func(string, string) {},
	}
}

// GetWebhookController returns the initialized controller instance.
func GetWebhookController() *WebhookController {
	return webhookController
}

// HandleStripeWebhook processes POST /webhooks/stripe.
func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	return wc.handle(c, payments.ProviderStripe, payments.ClassifyStripeEvent)
}

// HandlePayPalWebhook processes POST /webhooks/paypal.
func (wc *WebhookController) HandlePayPalWebhook(c *fiber.Ctx) error {
	return wc.handle(c, payments.ProviderPayPal, payments.ClassifyPayPalEvent)
}

func (wc *WebhookController) handle(c *fiber.Ctx, provider string, classify func([]byte) (payments.Intent, error)) error {
	requestID := requestIDFrom(c)
	rawBody := append([]byte(nil), c.BodyRaw()...)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	// Verification failures must never be acknowledged: the provider keeps
	// retrying unacknowledged events, which is what we want.
	if err := wc.verifiers[provider].Verify(ctx, rawBody, func(key string) string { return c.Get(key) }); err != nil {
		wc.recordDelivery(provider, counter.OutcomeRejected)
		if errors.Is(err, payments.ErrVerifierUnconfigured) {
			fiberlog.Errorf("[Webhook] %s verification required but unconfigured (request %s)", provider, requestID)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "verification_unconfigured", "requestId": requestID})
		}
		fiberlog.Warnf("[Webhook] %s signature rejected (request %s): %v", provider, requestID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature", "requestId": requestID})
	}

	intent, err := classify(rawBody)
	if err != nil {
		wc.recordDelivery(provider, counter.OutcomeRejected)
		fiberlog.Warnf("[Webhook] %s payload rejected (request %s): %v", provider, requestID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "requestId": requestID})
	}

	duplicate, err := wc.service.ProcessEvent(ctx, intent)
	if err != nil {
		wc.recordDelivery(provider, counter.OutcomeFailed)
		fiberlog.Errorf("[Webhook] %s event %s processing failed (request %s): %v", provider, intent.EventID, requestID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed", "requestId": requestID})
	}
	if duplicate {
		wc.recordDelivery(provider, counter.OutcomeDuplicate)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": true, "requestId": requestID})
	}
	wc.recordDelivery(provider, counter.OutcomeReceived)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "requestId": requestID})
}

// HandleWebhookEventLookup exposes one ledger record for manual
// reconciliation: GET /api/v1/webhooks/events/:provider/:id.
func (wc *WebhookController) HandleWebhookEventLookup(c *fiber.Ctx) error {
	provider := strings.ToLower(strings.TrimSpace(c.Params("provider")))
	eventID := strings.TrimSpace(c.Params("id"))
	if provider == "" || eventID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "provider and event id are required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	event, err := wc.service.GetLedgerEntry(ctx, provider, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not processed"})
		}
		fiberlog.Errorf("[Webhook] ledger lookup %s/%s failed: %v", provider, eventID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(event)
}

// HandleWebhookStats returns the per-provider delivery counters:
// GET /api/v1/webhooks/stats/:provider.
func (wc *WebhookController) HandleWebhookStats(c *fiber.Ctx) error {
	provider := strings.ToLower(strings.TrimSpace(c.Params("provider")))
	if provider != payments.ProviderStripe && provider != payments.ProviderPayPal {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown provider"})
	}

	stats, err := counter.WebhookStats(provider)
	if err != nil {
		fiberlog.Errorf("[Webhook] stats lookup for %s failed: %v", provider, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"provider": provider, "deliveries": stats})
}

// requestIDFrom echoes the caller's x-request-id or generates one, so every
// response can be correlated with the processing logs.
func requestIDFrom(c *fiber.Ctx) string {
	if id := strings.TrimSpace(c.Get("X-Request-Id")); id != "" {
		return id
	}
	return uuid.NewString()
}
