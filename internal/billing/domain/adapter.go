package domain

import (
	"context"
	"net/http"
)

// Adapter verifies and normalizes one provider's webhook deliveries.
type Adapter interface {
	// Provider is the stable adapter name used in webhook routing.
	Provider() string

	// Parse checks the delivery signature and maps the payload to a
	// normalized Event. ErrInvalidSignature on verification failure,
	// ErrEventIgnored for provider event types outside the reconciled set.
	Parse(ctx context.Context, payload []byte, headers http.Header) (*Event, error)
}
