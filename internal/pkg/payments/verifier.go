package payments

import (
	"context"
	"errors"
)

var (
	// ErrInvalidSignature means the request body was not provably sent by the
	// claimed provider. Handlers must reject before any state mutation.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrVerifierUnconfigured means verification is required but the secret or
	// webhook id is not configured. In production this fails closed.
	ErrVerifierUnconfigured = errors.New("webhook verifier not configured")
)

// HeaderFunc returns the value of a request header, "" when absent.
type HeaderFunc func(key string) string

// Verifier validates that a raw webhook body was genuinely sent by the
// claimed provider. Implementations never panic on malformed input; malformed
// input is ErrInvalidSignature.
type Verifier interface {
	Verify(ctx context.Context, body []byte, header HeaderFunc) error
}
