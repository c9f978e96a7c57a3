package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eventra/eventra/app/models"
	"github.com/eventra/eventra/internal/pkg/payments"
)

type staticVerifier struct{ err error }

func (v staticVerifier) Verify(ctx context.Context, body []byte, header payments.HeaderFunc) error {
	return v.err
}

// ledgerOnlyRepo satisfies payments.Repository for events that never reach an
// order. The embedded nil interface panics on anything outside the ledger.
type ledgerOnlyRepo struct {
	payments.Repository

	mu     sync.Mutex
	events map[string]models.ProcessedWebhookEvent
}

func newLedgerOnlyRepo() *ledgerOnlyRepo {
	return &ledgerOnlyRepo{events: make(map[string]models.ProcessedWebhookEvent)}
}

func (r *ledgerOnlyRepo) IsEventProcessed(provider, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.events[provider+"/"+eventID]
	return ok, nil
}

func (r *ledgerOnlyRepo) MarkEventProcessed(event *models.ProcessedWebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := event.Provider + "/" + event.ProviderEventID
	if _, ok := r.events[key]; ok {
		return false, nil
	}
	r.events[key] = *event
	return true, nil
}

func (r *ledgerOnlyRepo) GetProcessedEvent(provider, eventID string) (*models.ProcessedWebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event, ok := r.events[provider+"/"+eventID]; ok {
		return &event, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestApp(verifyErr error) (*fiber.App, *ledgerOnlyRepo) {
	repo := newLedgerOnlyRepo()
	cfg := payments.Config{Environment: "dev"}
	wc := NewWebhookController(cfg, payments.NewService(repo, nil, cfg), map[string]payments.Verifier{
		payments.ProviderStripe: staticVerifier{err: verifyErr},
		payments.ProviderPayPal: staticVerifier{err: verifyErr},
	})

	app := fiber.New()
	app.Post("/webhooks/stripe", wc.HandleStripeWebhook)
	app.Post("/webhooks/paypal", wc.HandlePayPalWebhook)
	app.Get("/api/v1/webhooks/events/:provider/:id", wc.HandleWebhookEventLookup)
	app.Get("/api/v1/webhooks/stats/:provider", wc.HandleWebhookStats)
	return app, repo
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestHandleStripeWebhook_InvalidSignature(t *testing.T) {
	app, repo := newTestApp(payments.ErrInvalidSignature)

	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/stripe", strings.NewReader(`{"id":"evt_1","type":"product.created"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "invalid_signature", body["error"])
	assert.NotEmpty(t, body["requestId"])

	// Rejected events never enter the ledger.
	processed, err := repo.IsEventProcessed(payments.ProviderStripe, "evt_1")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestHandleStripeWebhook_VerifierUnconfigured(t *testing.T) {
	app, _ := newTestApp(payments.ErrVerifierUnconfigured)

	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestHandleStripeWebhook_MalformedPayload(t *testing.T) {
	app, _ := newTestApp(nil)

	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/stripe", strings.NewReader(`not json`))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "invalid_payload", body["error"])
}

func TestHandleStripeWebhook_AcceptAndDeduplicate(t *testing.T) {
	app, repo := newTestApp(nil)
	payload := `{"id":"evt_dup","type":"product.created","data":{"object":{}}}`

	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("X-Request-Id", "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, "req-123", body["requestId"])
	assert.Nil(t, body["duplicate"])

	processed, err := repo.IsEventProcessed(payments.ProviderStripe, "evt_dup")
	require.NoError(t, err)
	assert.True(t, processed)

	// Redelivery acknowledges without reprocessing.
	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/webhooks/stripe", strings.NewReader(payload)))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp.Body)
	assert.Equal(t, true, body["duplicate"])
}

func TestHandlePayPalWebhook_Accept(t *testing.T) {
	app, repo := newTestApp(nil)

	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/paypal",
		strings.NewReader(`{"id":"WH-1","event_type":"VAULT.PAYMENT-TOKEN.CREATED","resource":{}}`))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	processed, err := repo.IsEventProcessed(payments.ProviderPayPal, "WH-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestHandleWebhookEventLookup(t *testing.T) {
	app, repo := newTestApp(nil)
	_, err := repo.MarkEventProcessed(&models.ProcessedWebhookEvent{
		Provider:        payments.ProviderStripe,
		ProviderEventID: "evt_seen",
		EventType:       "payment_intent.succeeded",
	})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/webhooks/events/stripe/evt_seen", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "payment_intent.succeeded", body["event_type"])

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/webhooks/events/stripe/evt_unseen", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleWebhookStats_UnknownProvider(t *testing.T) {
	app, _ := newTestApp(nil)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/webhooks/stats/square", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
