package repository

import (
	"context"

	"github.com/foundify/foundify/internal/referral/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() domain.Repository {
	return repository{}
}

func (repository) Insert(ctx context.Context, db *gorm.DB, referral *domain.Referral) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO referrals (id, referrer_id, referred_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (referred_id) DO NOTHING`,
		referral.ID,
		referral.ReferrerID,
		referral.ReferredID,
		referral.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repository) CountByReferrer(ctx context.Context, db *gorm.DB, referrerID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Referral{}).
		Where("referrer_id = ?", referrerID).
		Count(&count).Error
	return count, err
}
