// Package domain defines referral tracking.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Referral links a referred signup to its referrer. A signup can be
// referred at most once; replays of the same attribution are no-ops.
type Referral struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ReferrerID string       `gorm:"type:text;not null;index"`
	ReferredID string       `gorm:"type:text;not null;uniqueIndex:ux_referrals_referred_id"`
	CreatedAt  time.Time    `gorm:"not null"`
}

func (Referral) TableName() string { return "referrals" }

type Repository interface {
	// Insert claims the attribution slot for referral.ReferredID. Returns
	// false when the signup is already attributed.
	Insert(ctx context.Context, db *gorm.DB, referral *Referral) (bool, error)
	CountByReferrer(ctx context.Context, db *gorm.DB, referrerID string) (int64, error)
}

type Service interface {
	// Track records the attribution. Returns false without error when the
	// referred signup was already attributed.
	Track(ctx context.Context, referrerID, referredID string) (bool, error)
	CountByReferrer(ctx context.Context, referrerID string) (int64, error)
}

var (
	ErrInvalidReferral = errors.New("invalid_referral")
	ErrSelfReferral    = errors.New("self_referral")
)
