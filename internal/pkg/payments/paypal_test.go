package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paypalStub fakes the token and verify endpoints.
func paypalStub(t *testing.T, verificationStatus string, tokenCalls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			if tokenCalls != nil {
				*tokenCalls++
			}
			user, pass, ok := r.BasicAuth()
			if !ok || user != "client-id" || pass != "client-secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "test-token",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "/v1/notifications/verify-webhook-signature":
			if r.Header.Get("Authorization") != "Bearer test-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			for _, field := range []string{"transmission_id", "transmission_time", "cert_url", "auth_algo", "transmission_sig", "webhook_id", "webhook_event"} {
				if _, ok := req[field]; !ok {
					t.Errorf("verify request missing field %q", field)
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"verification_status": verificationStatus})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testPayPalClient(baseURL string) *PayPalClient {
	return &PayPalClient{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		APIBaseURL:   baseURL,
		HTTPClient:   http.DefaultClient,
	}
}

func paypalHeaders() HeaderFunc {
	return headerMap(map[string]string{
		paypalTransmissionIDHeader:   "tx-1",
		paypalTransmissionTimeHeader: "2026-08-26T10:00:00Z",
		paypalCertURLHeader:          "https://api.paypal.com/cert.pem",
		paypalAuthAlgoHeader:         "SHA256withRSA",
		paypalTransmissionSigHeader:  "c2ln",
	})
}

func TestPayPalVerifier_Verify_Success(t *testing.T) {
	srv := paypalStub(t, "SUCCESS", nil)
	defer srv.Close()

	v := &PayPalVerifier{Client: testPayPalClient(srv.URL), WebhookID: "WH-ID-1"}
	err := v.Verify(context.Background(), []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`), paypalHeaders())
	require.NoError(t, err)
}

func TestPayPalVerifier_Verify_Failure(t *testing.T) {
	srv := paypalStub(t, "FAILURE", nil)
	defer srv.Close()

	v := &PayPalVerifier{Client: testPayPalClient(srv.URL), WebhookID: "WH-ID-1"}
	err := v.Verify(context.Background(), []byte(`{"id":"WH-1"}`), paypalHeaders())
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestPayPalVerifier_Verify_MissingTransmissionHeader(t *testing.T) {
	srv := paypalStub(t, "SUCCESS", nil)
	defer srv.Close()

	v := &PayPalVerifier{Client: testPayPalClient(srv.URL), WebhookID: "WH-ID-1"}

	// Drop one header at a time; each absence must fail before any API call.
	full := map[string]string{
		paypalTransmissionIDHeader:   "tx-1",
		paypalTransmissionTimeHeader: "2026-08-26T10:00:00Z",
		paypalCertURLHeader:          "https://api.paypal.com/cert.pem",
		paypalAuthAlgoHeader:         "SHA256withRSA",
		paypalTransmissionSigHeader:  "c2ln",
	}
	for drop := range full {
		partial := make(map[string]string, len(full)-1)
		for k, v := range full {
			if k != drop {
				partial[k] = v
			}
		}
		err := v.Verify(context.Background(), []byte(`{}`), headerMap(partial))
		assert.True(t, errors.Is(err, ErrInvalidSignature), "expected ErrInvalidSignature without %s", drop)
	}
}

func TestPayPalVerifier_Verify_UnauthorizedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "test-token", "expires_in": 3600})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	v := &PayPalVerifier{Client: testPayPalClient(srv.URL), WebhookID: "WH-ID-1"}
	err := v.Verify(context.Background(), []byte(`{"id":"WH-1"}`), paypalHeaders())
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestPayPalVerifier_Verify_Unconfigured(t *testing.T) {
	v := &PayPalVerifier{Client: &PayPalClient{}, WebhookID: ""}
	err := v.Verify(context.Background(), []byte(`{}`), paypalHeaders())
	assert.True(t, errors.Is(err, ErrVerifierUnconfigured))
}

func TestPayPalClient_AccessToken(t *testing.T) {
	var tokenCalls int
	srv := paypalStub(t, "SUCCESS", &tokenCalls)
	defer srv.Close()

	c := testPayPalClient(srv.URL)
	token, err := c.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-token", token)
	assert.Equal(t, 1, tokenCalls)
}

func TestPayPalClient_AccessToken_MissingCredentials(t *testing.T) {
	c := &PayPalClient{HTTPClient: http.DefaultClient}
	_, err := c.AccessToken(context.Background())
	require.Error(t, err)
}

func TestPayPalClient_AccessToken_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testPayPalClient(srv.URL)
	_, err := c.AccessToken(context.Background())
	require.Error(t, err)
}
