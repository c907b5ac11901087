// Package domain defines the hosted-checkout contract.
package domain

import (
	"context"
	"errors"
	"time"

	billingdomain "github.com/foundify/foundify/internal/billing/domain"
)

// Session is a started hosted checkout the client is redirected to.
type Session struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// SessionStatus is the provider's view of a checkout session, fetched
// during verification.
type SessionStatus struct {
	ID          string
	Complete    bool
	AccountID   string
	CustomerRef string
	CreatedAt   time.Time
}

// Provider wraps the payment provider's customer and checkout APIs.
type Provider interface {
	CreateCustomer(ctx context.Context, accountID, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, accountID, customerRef string) (*Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*SessionStatus, error)
}

// Service starts hosted checkouts and verifies their completion. Verify is
// the synchronous fallback for the success redirect; the webhook remains
// the source of truth and both paths converge on the same reconciler.
type Service interface {
	Start(ctx context.Context, accountID string) (*Session, error)
	// Verify checks sessionID and reconciles it when complete. When the
	// session carries an account, it must match accountID.
	Verify(ctx context.Context, accountID, sessionID string) (billingdomain.Result, error)
}

var (
	ErrInvalidSession      = errors.New("invalid_session")
	ErrSessionNotFound     = errors.New("session_not_found")
	ErrSessionMismatch     = errors.New("session_account_mismatch")
	ErrProviderUnavailable = errors.New("provider_unavailable")
)

// ReasonSessionIncomplete marks a verify call against a session the
// customer has not finished paying.
const ReasonSessionIncomplete = "session_incomplete"

// SyntheticEventID derives the reconciler event ID for a verified session.
// Stable per session so verify retries dedupe.
func SyntheticEventID(sessionID string) string {
	return "checkout_verify:" + sessionID
}
