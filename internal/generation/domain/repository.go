package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert appends the record; returns false when the generation ID is
	// already present.
	Insert(ctx context.Context, db *gorm.DB, record *Record) (bool, error)
	Find(ctx context.Context, db *gorm.DB, generationID string) (*Record, error)
	CountInWindow(ctx context.Context, db *gorm.DB, accountID string, from, to time.Time) (int64, error)
}
