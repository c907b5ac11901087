// Package service orchestrates hosted checkout against the entitlement
// store and the billing reconciler.
package service

import (
	"context"
	"strings"

	auditdomain "github.com/foundify/foundify/internal/audit/domain"
	billingdomain "github.com/foundify/foundify/internal/billing/domain"
	"github.com/foundify/foundify/internal/checkout/domain"
	entitlementdomain "github.com/foundify/foundify/internal/entitlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log            *zap.Logger
	Provider       domain.Provider
	EntitlementSvc entitlementdomain.Service
	BillingSvc     billingdomain.Service
	AuditSvc       auditdomain.Service
}

type Service struct {
	log            *zap.Logger
	provider       domain.Provider
	entitlementSvc entitlementdomain.Service
	billingSvc     billingdomain.Service
	auditSvc       auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		log:            p.Log.Named("checkout.service"),
		provider:       p.Provider,
		entitlementSvc: p.EntitlementSvc,
		billingSvc:     p.BillingSvc,
		auditSvc:       p.AuditSvc,
	}
}

func (s *Service) Start(ctx context.Context, accountID string) (*domain.Session, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, entitlementdomain.ErrInvalidAccount
	}
	account, err := s.entitlementSvc.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	customerRef, err := s.entitlementSvc.EnsureBillingCustomer(ctx, accountID, func(ctx context.Context) (string, error) {
		return s.provider.CreateCustomer(ctx, accountID, account.Email)
	})
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, accountID, customerRef)
	if err != nil {
		return nil, err
	}

	targetID := session.ID
	if err := s.auditSvc.AuditLog(ctx, accountID, auditdomain.ActorTypeUser, "checkout.started", "checkout_session", &targetID, map[string]any{
		"customer_ref": customerRef,
	}); err != nil {
		s.log.Warn("audit write failed", zap.String("action", "checkout.started"), zap.Error(err))
	}
	return session, nil
}

// Verify fetches the session and, when complete, pushes a synthetic
// checkout event through the reconciler. The provider webhook delivers the
// authoritative event separately; both are idempotent against each other
// because the tier write is guarded by the session's event time.
func (s *Service) Verify(ctx context.Context, accountID, sessionID string) (billingdomain.Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return billingdomain.Result{}, domain.ErrInvalidSession
	}
	accountID = strings.TrimSpace(accountID)

	status, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return billingdomain.Result{}, err
	}
	if accountID != "" && status.AccountID != "" && status.AccountID != accountID {
		return billingdomain.Result{}, domain.ErrSessionMismatch
	}
	if !status.Complete {
		return billingdomain.Ignored(domain.ReasonSessionIncomplete), nil
	}

	return s.billingSvc.ApplyEvent(ctx, billingdomain.Event{
		ID:          domain.SyntheticEventID(status.ID),
		Type:        billingdomain.EventTypeCheckoutCompleted,
		OccurredAt:  status.CreatedAt,
		AccountID:   status.AccountID,
		CustomerRef: status.CustomerRef,
	})
}
