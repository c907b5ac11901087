package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertEvent claims the dedupe slot for event.EventID. Returns false
	// when a row for that event ID already exists.
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, eventID string) (*EventRecord, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, eventID string, status Status, reason string, processedAt time.Time) error
	// PruneReceivedBefore deletes processed rows received before cutoff.
	PruneReceivedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}
