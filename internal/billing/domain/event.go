package domain

import "time"

// Normalized billing event types. Adapters translate provider payloads into
// these; the reconciler never sees provider-specific names.
const (
	EventTypeCheckoutCompleted    = "CHECKOUT_COMPLETED"
	EventTypeInvoicePaid          = "INVOICE_PAID"
	EventTypeInvoiceFailed        = "INVOICE_FAILED"
	EventTypeSubscriptionCanceled = "SUBSCRIPTION_CANCELED"
)

// Event is one provider-agnostic billing fact.
type Event struct {
	// ID is the provider's event identifier, unique per delivery attempt
	// stream. Redeliveries reuse it.
	ID string

	Type string

	// OccurredAt is the provider-side event time, the ordering authority
	// for tier transitions. Receive order is meaningless.
	OccurredAt time.Time

	// AccountID is the internal account carried in provider metadata, when
	// present. Checkout events always have it; renewal invoices usually
	// only carry CustomerRef.
	AccountID string

	// CustomerRef is the provider's customer identifier.
	CustomerRef string
}
