package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository exposes the conditional writes the store is built on. Every
// mutation is a single atomic statement so concurrent process instances
// serialize through the database, not through in-process locks.
type Repository interface {
	Find(ctx context.Context, db *gorm.DB, accountID string) (*Account, error)
	FindByBillingRef(ctx context.Context, db *gorm.DB, customerRef string) (*Account, error)

	// Insert creates the account row; returns false when it already exists.
	Insert(ctx context.Context, db *gorm.DB, account *Account) (bool, error)

	// ClaimBillingRef sets billing_customer_ref iff it is still null.
	// Returns false when another writer claimed it first.
	ClaimBillingRef(ctx context.Context, db *gorm.DB, accountID, customerRef string) (bool, error)

	// UpdateTier applies the guarded tier write. Returns false when the
	// stored tier_updated_at is newer than asOf (stale) or the row is gone.
	UpdateTier(ctx context.Context, db *gorm.DB, accountID string, tier Tier, asOf time.Time, customerRef string) (bool, error)
}
