// Package stripe implements the checkout provider against the Stripe API.
package stripe

import (
	"context"
	"strings"
	"time"

	"github.com/foundify/foundify/internal/checkout/domain"
	"github.com/foundify/foundify/internal/config"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const metadataAccountKey = "account_id"

type Provider struct {
	log *zap.Logger
	api *client.API
	cfg config.StripeConfig
}

type Params struct {
	fx.In

	Log *zap.Logger
	Cfg config.Config
}

func NewProvider(p Params) domain.Provider {
	api := &client.API{}
	api.Init(strings.TrimSpace(p.Cfg.Stripe.SecretKey), nil)
	return &Provider{
		log: p.Log.Named("checkout.stripe"),
		api: api,
		cfg: p.Cfg.Stripe,
	}
}

func (p *Provider) CreateCustomer(ctx context.Context, accountID, email string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata(metadataAccountKey, accountID)

	customer, err := p.api.Customers.New(params)
	if err != nil {
		p.log.Warn("customer create failed",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return "", domain.ErrProviderUnavailable
	}
	return customer.ID, nil
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, accountID, customerRef string) (*domain.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(customerRef),
		SuccessURL: stripe.String(p.cfg.SuccessURL),
		CancelURL:  stripe.String(p.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		// Stamped onto the subscription too so renewal invoices carry the
		// account through subscription_details.metadata.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metadataAccountKey: accountID},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataAccountKey, accountID)

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		p.log.Warn("checkout session create failed",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return nil, domain.ErrProviderUnavailable
	}
	return &domain.Session{ID: session.ID, URL: session.URL}, nil
}

func (p *Provider) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.HTTPStatusCode == 404 {
			return nil, domain.ErrSessionNotFound
		}
		p.log.Warn("checkout session fetch failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, domain.ErrProviderUnavailable
	}

	status := &domain.SessionStatus{
		ID:        session.ID,
		Complete:  session.Status == stripe.CheckoutSessionStatusComplete,
		AccountID: strings.TrimSpace(session.Metadata[metadataAccountKey]),
		CreatedAt: time.Unix(session.Created, 0).UTC(),
	}
	if session.Customer != nil {
		status.CustomerRef = session.Customer.ID
	}
	return status, nil
}
