package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/foundify/foundify/internal/clock"
	entitlementdomain "github.com/foundify/foundify/internal/entitlement/domain"
	"github.com/foundify/foundify/internal/referral/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	Repo           domain.Repository
	EntitlementSvc entitlementdomain.Service
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	repo           domain.Repository
	entitlementSvc entitlementdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("referral.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		entitlementSvc: p.EntitlementSvc,
	}
}

func (s *Service) Track(ctx context.Context, referrerID, referredID string) (bool, error) {
	referrerID = strings.TrimSpace(referrerID)
	referredID = strings.TrimSpace(referredID)
	if referrerID == "" || referredID == "" {
		return false, domain.ErrInvalidReferral
	}
	if referrerID == referredID {
		return false, domain.ErrSelfReferral
	}

	// Both sides must be provisioned accounts.
	if _, err := s.entitlementSvc.GetAccount(ctx, referrerID); err != nil {
		return false, err
	}
	if _, err := s.entitlementSvc.GetAccount(ctx, referredID); err != nil {
		return false, err
	}

	created, err := s.repo.Insert(ctx, s.db, &domain.Referral{
		ID:         s.genID.Generate(),
		ReferrerID: referrerID,
		ReferredID: referredID,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		return false, err
	}
	if created {
		s.log.Info("referral tracked",
			zap.String("referrer_id", referrerID),
			zap.String("referred_id", referredID),
		)
	}
	return created, nil
}

func (s *Service) CountByReferrer(ctx context.Context, referrerID string) (int64, error) {
	referrerID = strings.TrimSpace(referrerID)
	if referrerID == "" {
		return 0, domain.ErrInvalidReferral
	}
	return s.repo.CountByReferrer(ctx, s.db, referrerID)
}
