// Package service implements the entitlement store.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/foundify/foundify/internal/cache"
	"github.com/foundify/foundify/internal/clock"
	"github.com/foundify/foundify/internal/entitlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const lookupTTL = 5 * time.Second

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
	reads *cache.TTL[*domain.Account]
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("entitlement.service"),
		clock: p.Clock,
		repo:  p.Repo,
		reads: cache.NewTTL[*domain.Account](lookupTTL),
	}
}

func (s *Service) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, domain.ErrInvalidAccount
	}
	account, err := s.repo.Find(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

func (s *Service) Lookup(ctx context.Context, accountID string) (*domain.Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, domain.ErrInvalidAccount
	}
	if account, ok := s.reads.Get(accountID); ok {
		return account, nil
	}
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	s.reads.Put(accountID, account)
	return account, nil
}

func (s *Service) EnsureAccount(ctx context.Context, accountID, email string) (*domain.Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, domain.ErrInvalidAccount
	}

	now := s.clock.Now()
	account := &domain.Account{
		ID:        accountID,
		Tier:      domain.TierFree,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	inserted, err := s.repo.Insert(ctx, s.db, account)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return s.GetAccount(ctx, accountID)
	}
	s.log.Info("account provisioned", zap.String("account_id", accountID))
	return account, nil
}

// EnsureBillingCustomer serializes concurrent callers through a
// compare-and-set on billing_customer_ref: losers discard their created
// customer ref and re-read the winner's. Discarded refs are never stored,
// so racing callers can strand unused customer records at the provider.
func (s *Service) EnsureBillingCustomer(ctx context.Context, accountID string, create domain.CreateCustomerFn) (string, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account.BillingCustomerRef != nil && *account.BillingCustomerRef != "" {
		return *account.BillingCustomerRef, nil
	}

	customerRef, err := create(ctx)
	if err != nil {
		return "", err
	}
	customerRef = strings.TrimSpace(customerRef)
	if customerRef == "" {
		return "", domain.ErrMissingBillingRef
	}

	claimed, err := s.repo.ClaimBillingRef(ctx, s.db, accountID, customerRef)
	if err != nil {
		return "", err
	}
	if claimed {
		s.reads.Invalidate(accountID)
		return customerRef, nil
	}

	// Lost the race. The other writer's ref is authoritative.
	account, err = s.GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account.BillingCustomerRef == nil || *account.BillingCustomerRef == "" {
		return "", domain.ErrMissingBillingRef
	}
	s.log.Warn("discarding duplicate billing customer",
		zap.String("account_id", accountID),
		zap.String("kept_ref", *account.BillingCustomerRef),
	)
	return *account.BillingCustomerRef, nil
}

func (s *Service) SetTier(ctx context.Context, accountID string, tier domain.Tier, asOf time.Time, customerRef string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return domain.ErrInvalidAccount
	}
	if !tier.Valid() {
		return domain.ErrInvalidTier
	}
	if asOf.IsZero() {
		return domain.ErrStaleTransition
	}

	if tier == domain.TierPro && strings.TrimSpace(customerRef) == "" {
		// PRO implies a billing customer ref. If the event carried none the
		// ref must already be on the account (checkout path set it).
		account, err := s.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if account.BillingCustomerRef == nil || *account.BillingCustomerRef == "" {
			return domain.ErrMissingBillingRef
		}
	}

	applied, err := s.repo.UpdateTier(ctx, s.db, accountID, tier, asOf.UTC(), customerRef)
	if err != nil {
		return err
	}
	if !applied {
		account, err := s.repo.Find(ctx, s.db, accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.ErrNotFound
		}
		return domain.ErrStaleTransition
	}

	s.reads.Invalidate(accountID)
	s.log.Info("tier transition applied",
		zap.String("account_id", accountID),
		zap.String("tier", string(tier)),
		zap.Time("as_of", asOf.UTC()),
	)
	return nil
}

func (s *Service) FindByBillingRef(ctx context.Context, customerRef string) (*domain.Account, error) {
	account, err := s.repo.FindByBillingRef(ctx, s.db, customerRef)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}
