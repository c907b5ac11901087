// Package service implements the generation ledger.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/foundify/foundify/internal/clock"
	entitlementdomain "github.com/foundify/foundify/internal/entitlement/domain"
	"github.com/foundify/foundify/internal/events"
	"github.com/foundify/foundify/internal/generation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	Clock          clock.Clock
	Repo           domain.Repository
	EntitlementSvc entitlementdomain.Service
	Outbox         *events.Outbox
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	clock          clock.Clock
	repo           domain.Repository
	entitlementSvc entitlementdomain.Service
	outbox         *events.Outbox
}

func NewService(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("generation.service"),
		clock:          p.Clock,
		repo:           p.Repo,
		entitlementSvc: p.EntitlementSvc,
		outbox:         p.Outbox,
	}
}

func (s *Service) Record(ctx context.Context, accountID, generationID string) (*domain.Record, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, domain.ErrInvalidAccount
	}
	generationID = strings.TrimSpace(generationID)
	if generationID == "" {
		return nil, domain.ErrInvalidGeneration
	}

	// Never invent accounts here; provisioning belongs to the identity
	// provider hook.
	if _, err := s.entitlementSvc.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	record := &domain.Record{
		ID:        generationID,
		AccountID: accountID,
		CreatedAt: s.clock.Now(),
	}

	var inserted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, err = s.repo.Insert(ctx, tx, record)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		// The dedupe key makes the zero-to-one detection atomic: only the
		// first record for an account wins the insert.
		_, err = s.outbox.Publish(ctx, tx, events.Notification{
			AccountID: accountID,
			Kind:      events.KindWelcome,
			DedupeKey: events.WelcomeDedupeKey(accountID),
			Payload:   map[string]any{"generation_id": generationID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if !inserted {
		existing, err := s.repo.Find(ctx, s.db, generationID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, domain.ErrInvalidGeneration
		}
		if existing.AccountID != accountID {
			return nil, domain.ErrOwnershipMismatch
		}
		return existing, nil
	}

	s.log.Info("generation recorded",
		zap.String("account_id", accountID),
		zap.String("generation_id", generationID),
	)
	return record, nil
}

func (s *Service) CountInWindow(ctx context.Context, accountID string, from, to time.Time) (int64, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return 0, domain.ErrInvalidAccount
	}
	return s.repo.CountInWindow(ctx, s.db, accountID, from, to)
}
