// Package repository implements the billing event dedupe ledger.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/foundify/foundify/internal/billing/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() domain.Repository {
	return repository{}
}

func (repository) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.EventRecord) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO billing_events
		   (id, event_id, provider, event_type, account_id, customer_ref, occurred_at, payload, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (event_id) DO NOTHING`,
		event.ID,
		event.EventID,
		event.Provider,
		event.EventType,
		event.AccountID,
		event.CustomerRef,
		event.OccurredAt,
		event.Payload,
		event.ReceivedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repository) FindEvent(ctx context.Context, db *gorm.DB, eventID string) (*domain.EventRecord, error) {
	var record domain.EventRecord
	err := db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (repository) MarkProcessed(ctx context.Context, db *gorm.DB, eventID string, status domain.Status, reason string, processedAt time.Time) error {
	var reasonValue any
	if reason != "" {
		reasonValue = reason
	}
	return db.WithContext(ctx).Exec(
		`UPDATE billing_events
		 SET status = ?, reason = ?, processed_at = ?
		 WHERE event_id = ?`,
		string(status),
		reasonValue,
		processedAt,
		eventID,
	).Error
}

func (repository) PruneReceivedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM billing_events
		 WHERE received_at < ? AND processed_at IS NOT NULL`,
		cutoff,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
