// Package stripe normalizes Stripe webhook deliveries.
package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/foundify/foundify/internal/billing/domain"
	"github.com/foundify/foundify/internal/config"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const providerName = "stripe"

// metadataAccountKey is set on checkout sessions and subscriptions at
// creation time so webhook events can be tied back to an account without a
// customer-ref lookup.
const metadataAccountKey = "account_id"

type Adapter struct {
	log           *zap.Logger
	webhookSecret string
}

type Params struct {
	fx.In

	Log *zap.Logger
	Cfg config.Config
}

func NewAdapter(p Params) domain.Adapter {
	return &Adapter{
		log:           p.Log.Named("billing.stripe"),
		webhookSecret: strings.TrimSpace(p.Cfg.Stripe.WebhookSecret),
	}
}

func (a *Adapter) Provider() string { return providerName }

// objectPayload is the subset of checkout.Session, Invoice and Subscription
// fields the reconciler needs. Expandable references arrive as plain IDs in
// webhook payloads.
type objectPayload struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
	SubscriptionDetails struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
}

func (a *Adapter) Parse(ctx context.Context, payload []byte, headers http.Header) (*domain.Event, error) {
	if a.webhookSecret == "" {
		return nil, domain.ErrInvalidSignature
	}
	// The endpoint's pinned Stripe API version moves independently of the
	// SDK's. The fields decoded below are stable across versions, so a
	// mismatch must not turn every delivery into a terminal 400.
	event, err := webhook.ConstructEventWithOptions(payload, headers.Get("Stripe-Signature"), a.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		a.log.Warn("webhook signature rejected", zap.Error(err))
		return nil, domain.ErrInvalidSignature
	}

	var eventType string
	switch string(event.Type) {
	case "checkout.session.completed":
		eventType = domain.EventTypeCheckoutCompleted
	case "invoice.payment_succeeded", "invoice.paid":
		eventType = domain.EventTypeInvoicePaid
	case "invoice.payment_failed":
		eventType = domain.EventTypeInvoiceFailed
	case "customer.subscription.deleted":
		eventType = domain.EventTypeSubscriptionCanceled
	default:
		return nil, domain.ErrEventIgnored
	}

	var object objectPayload
	if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	accountID := strings.TrimSpace(object.Metadata[metadataAccountKey])
	if accountID == "" {
		accountID = strings.TrimSpace(object.SubscriptionDetails.Metadata[metadataAccountKey])
	}

	normalized := &domain.Event{
		ID:          strings.TrimSpace(event.ID),
		Type:        eventType,
		OccurredAt:  time.Unix(event.Created, 0).UTC(),
		AccountID:   accountID,
		CustomerRef: strings.TrimSpace(object.Customer),
	}
	if normalized.ID == "" {
		return nil, domain.ErrInvalidEvent
	}
	return normalized, nil
}
