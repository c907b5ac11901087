// Package repository persists generation ledger rows.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/foundify/foundify/internal/generation/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide constructs the gorm-backed repository.
func Provide() domain.Repository {
	return repository{}
}

func (repository) Insert(ctx context.Context, db *gorm.DB, record *domain.Record) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO generation_records (id, account_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		record.ID,
		record.AccountID,
		record.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repository) Find(ctx context.Context, db *gorm.DB, generationID string) (*domain.Record, error) {
	var record domain.Record
	err := db.WithContext(ctx).
		Where("id = ?", generationID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (repository) CountInWindow(ctx context.Context, db *gorm.DB, accountID string, from, to time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM generation_records
		 WHERE account_id = ?
		   AND created_at >= ?
		   AND created_at < ?`,
		accountID,
		from,
		to,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
