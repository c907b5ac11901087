package domain

import (
	"context"
	"errors"
	"net/http"
)

// Status is the reconciliation verdict for one event delivery.
type Status string

const (
	StatusApplied Status = "APPLIED"
	StatusIgnored Status = "IGNORED"
	StatusFailed  Status = "FAILED"
)

// Reason codes attached to IGNORED and FAILED results.
const (
	ReasonDuplicateEvent     = "duplicate_event"
	ReasonStaleTransition    = "stale_transition"
	ReasonUnsupportedEvent   = "unsupported_event"
	ReasonUnresolvedAccount  = "unresolved_account"
	ReasonMissingCustomerRef = "missing_customer_ref"
	ReasonStorageUnavailable = "storage_unavailable"
)

// Result reports what the reconciler did with an event. Retryable marks
// failures the provider should redeliver (unresolved account, storage
// outage); non-retryable failures are terminal.
type Result struct {
	Status    Status `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func Applied() Result              { return Result{Status: StatusApplied} }
func Ignored(reason string) Result { return Result{Status: StatusIgnored, Reason: reason} }
func Failed(reason string, retryable bool) Result {
	return Result{Status: StatusFailed, Reason: reason, Retryable: retryable}
}

// Service reconciles provider billing events into the entitlement store.
type Service interface {
	// IngestWebhook verifies and parses a raw provider delivery, then
	// applies it. Signature and payload failures surface as errors; parsed
	// events return a Result.
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) (Result, error)

	// ApplyEvent reconciles one normalized event. Idempotent per Event.ID
	// within the retention window, and order-insensitive thanks to the
	// OccurredAt guard on tier writes.
	ApplyEvent(ctx context.Context, event Event) (Result, error)

	// PruneEvents removes processed dedupe rows received before the
	// retention cutoff. Returns the number of rows removed.
	PruneEvents(ctx context.Context) (int64, error)
}

var (
	ErrInvalidProvider  = errors.New("invalid_provider")
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrEventIgnored     = errors.New("event_ignored")
)
