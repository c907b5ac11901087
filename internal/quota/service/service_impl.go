// Package service implements the free-tier quota engine.
//
// The ALLOW decision and the eventual ledger append are two separate steps:
// ALLOW does not reserve a slot, so two concurrent ALLOWed requests for the
// same FREE account can both complete and both record. That gap is carried
// over deliberately from the product's observed behavior; a reservation
// (reserve, confirm or release) would close it.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/foundify/foundify/internal/clock"
	entitlementdomain "github.com/foundify/foundify/internal/entitlement/domain"
	generationdomain "github.com/foundify/foundify/internal/generation/domain"
	"github.com/foundify/foundify/internal/observability/metrics"
	"github.com/foundify/foundify/internal/quota/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log            *zap.Logger
	Clock          clock.Clock
	EntitlementSvc entitlementdomain.Service
	GenerationSvc  generationdomain.Service
	Metrics        *metrics.Core `optional:"true"`
	Limit          FreeMonthlyLimit
}

// FreeMonthlyLimit is the number of generations a FREE account gets per UTC
// calendar month.
type FreeMonthlyLimit int

type Service struct {
	log            *zap.Logger
	clock          clock.Clock
	entitlementSvc entitlementdomain.Service
	generationSvc  generationdomain.Service
	metrics        *metrics.Core
	limit          int64
}

func NewService(p Params) domain.Service {
	limit := int64(p.Limit)
	if limit < 1 {
		limit = 1
	}
	return &Service{
		log:            p.Log.Named("quota.service"),
		clock:          p.Clock,
		entitlementSvc: p.EntitlementSvc,
		generationSvc:  p.GenerationSvc,
		metrics:        p.Metrics,
		limit:          limit,
	}
}

// CanGenerate fails closed: when the entitlement store or the generation
// ledger cannot answer, the decision is DENY(storage_unavailable), never a
// default ALLOW.
func (s *Service) CanGenerate(ctx context.Context, accountID string) (domain.Decision, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return s.deny(domain.ReasonUnknownAccount), entitlementdomain.ErrInvalidAccount
	}

	account, err := s.entitlementSvc.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, entitlementdomain.ErrNotFound) {
			return s.deny(domain.ReasonUnknownAccount), err
		}
		s.log.Warn("entitlement read failed, failing closed",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return s.deny(domain.ReasonStorageUnavailable), nil
	}

	if account.Tier == entitlementdomain.TierPro {
		return s.allow(), nil
	}

	from, to := domain.MonthWindow(s.clock.Now())
	used, err := s.generationSvc.CountInWindow(ctx, accountID, from, to)
	if err != nil {
		s.log.Warn("generation count failed, failing closed",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return s.deny(domain.ReasonStorageUnavailable), nil
	}

	if used >= s.limit {
		return s.deny(domain.ReasonFreeQuotaExceeded), nil
	}
	return s.allow(), nil
}

func (s *Service) allow() domain.Decision {
	s.metrics.ObserveQuotaDecision("allow", "")
	return domain.Allow()
}

func (s *Service) deny(reason string) domain.Decision {
	s.metrics.ObserveQuotaDecision("deny", reason)
	return domain.Deny(reason)
}
