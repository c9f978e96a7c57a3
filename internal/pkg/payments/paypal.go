package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/eventra/eventra/internal/pkg/cache"
)

const paypalTokenCacheKey = "paypal:oauth_access_token"

// PayPal transmission headers required for server-side verification.
const (
	paypalTransmissionIDHeader   = "Paypal-Transmission-Id"
	paypalTransmissionTimeHeader = "Paypal-Transmission-Time"
	paypalCertURLHeader          = "Paypal-Cert-Url"
	paypalAuthAlgoHeader         = "Paypal-Auth-Algo"
	paypalTransmissionSigHeader  = "Paypal-Transmission-Sig"
)

// PayPalClient talks to the PayPal REST API: client-credentials token
// exchange plus the webhook verify-signature call. There is no local fallback
// verification algorithm; verification is always delegated to the provider.
type PayPalClient struct {
	ClientID     string
	ClientSecret string
	APIBaseURL   string

	HTTPClient *http.Client

	// cacheToken toggles the Redis-backed access token cache. Disabled in
	// tests that run without a cache server.
	cacheToken bool
}

// NewPayPalClient builds a client from injected configuration.
func NewPayPalClient(cfg Config) *PayPalClient {
	return &PayPalClient{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		APIBaseURL:   strings.TrimRight(cfg.PayPalAPIBaseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheToken: true,
	}
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AccessToken returns a bearer token, served from cache while unexpired.
func (c *PayPalClient) AccessToken(ctx context.Context) (string, error) {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return "", errors.New("PAYPAL_CLIENT_ID/PAYPAL_CLIENT_SECRET are not configured")
	}

	if c.cacheToken {
		if token, err := cache.Get(paypalTokenCacheKey); err == nil && token != "" {
			return token, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("paypal token exchange failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out paypalTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", errors.New("paypal token exchange returned empty access_token")
	}

	if c.cacheToken && out.ExpiresIn > 60 {
		ttl := time.Duration(out.ExpiresIn-60) * time.Second
		if err := cache.Set(paypalTokenCacheKey, out.AccessToken, ttl); err != nil {
			fiberlog.Warnf("[PayPal] failed to cache access token: %v", err)
		}
	}
	return out.AccessToken, nil
}

// VerifyWebhookSignature calls the provider verify endpoint with the five
// transmission headers, the configured webhook id and the raw event.
func (c *PayPalClient) VerifyWebhookSignature(ctx context.Context, webhookID string, body []byte, header HeaderFunc) error {
	transmissionID := strings.TrimSpace(header(paypalTransmissionIDHeader))
	transmissionTime := strings.TrimSpace(header(paypalTransmissionTimeHeader))
	certURL := strings.TrimSpace(header(paypalCertURLHeader))
	authAlgo := strings.TrimSpace(header(paypalAuthAlgoHeader))
	transmissionSig := strings.TrimSpace(header(paypalTransmissionSigHeader))
	if transmissionID == "" || transmissionTime == "" || certURL == "" || authAlgo == "" || transmissionSig == "" {
		return ErrInvalidSignature
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"transmission_id":   transmissionID,
		"transmission_time": transmissionTime,
		"cert_url":          certURL,
		"auth_algo":         authAlgo,
		"transmission_sig":  transmissionSig,
		"webhook_id":        webhookID,
		"webhook_event":     json.RawMessage(body),
	})
	if err != nil {
		return ErrInvalidSignature
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.APIBaseURL+"/v1/notifications/verify-webhook-signature", strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusUnauthorized && c.cacheToken {
		// The cached token was revoked or expired early; drop it so the
		// provider's retry fetches a fresh one.
		if err := cache.Delete(paypalTokenCacheKey); err != nil {
			fiberlog.Warnf("[PayPal] failed to evict stale access token: %v", err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fiberlog.Warnf("[PayPal] verify-webhook-signature returned status=%d body=%s", resp.StatusCode, string(respBody))
		return ErrInvalidSignature
	}

	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return ErrInvalidSignature
	}
	if !strings.EqualFold(out.VerificationStatus, "SUCCESS") {
		return ErrInvalidSignature
	}
	return nil
}

// PayPalVerifier adapts the client to the Verifier capability.
type PayPalVerifier struct {
	Client    *PayPalClient
	WebhookID string
}

// NewPayPalVerifier builds the verifier from injected configuration.
func NewPayPalVerifier(cfg Config) *PayPalVerifier {
	return &PayPalVerifier{
		Client:    NewPayPalClient(cfg),
		WebhookID: cfg.PayPalWebhookID,
	}
}

func (v *PayPalVerifier) Verify(ctx context.Context, body []byte, header HeaderFunc) error {
	if strings.TrimSpace(v.WebhookID) == "" || strings.TrimSpace(v.Client.ClientID) == "" {
		return ErrVerifierUnconfigured
	}
	return v.Client.VerifyWebhookSignature(ctx, v.WebhookID, body, header)
}
