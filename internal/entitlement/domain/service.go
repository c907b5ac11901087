package domain

import (
	"context"
	"errors"
	"time"
)

// CreateCustomerFn creates the payment provider's customer record for an
// account and returns the provider reference. Racing EnsureBillingCustomer
// callers may each invoke it; only one returned ref is stored, the rest are
// orphaned at the provider.
type CreateCustomerFn func(ctx context.Context) (string, error)

// Service is the sole writer of Account.Tier and Account.BillingCustomerRef.
type Service interface {
	// GetAccount loads the entitlement record. ErrNotFound if the identity
	// provider never provisioned the account here.
	GetAccount(ctx context.Context, accountID string) (*Account, error)

	// EnsureAccount provisions the row for an identity-provider ID.
	// Idempotent; the tier starts FREE.
	EnsureAccount(ctx context.Context, accountID, email string) (*Account, error)

	// EnsureBillingCustomer returns the stored provider ref, creating it via
	// create when absent. Safe under concurrent calls: exactly one created
	// ref is stored and every caller observes the same final ref. Losing
	// callers may leave unused customer records at the provider.
	EnsureBillingCustomer(ctx context.Context, accountID string, create CreateCustomerFn) (string, error)

	// SetTier applies a tier transition stamped with the event time asOf.
	// A call whose asOf is older than the stored TierUpdatedAt is rejected
	// with ErrStaleTransition and mutates nothing. customerRef, when
	// non-empty, is persisted set-once alongside the transition.
	SetTier(ctx context.Context, accountID string, tier Tier, asOf time.Time, customerRef string) error

	// FindByBillingRef resolves an account by its provider customer ref.
	FindByBillingRef(ctx context.Context, customerRef string) (*Account, error)

	// Lookup is GetAccount behind a short TTL cache. Serving the read-only
	// entitlement endpoint only; quota and reconciliation always read fresh.
	Lookup(ctx context.Context, accountID string) (*Account, error)
}

var (
	ErrNotFound          = errors.New("account_not_found")
	ErrInvalidAccount    = errors.New("invalid_account")
	ErrInvalidTier       = errors.New("invalid_tier")
	ErrStaleTransition   = errors.New("stale_transition")
	ErrMissingBillingRef = errors.New("missing_billing_ref")
)
