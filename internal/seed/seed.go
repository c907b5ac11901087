// Package seed provisions development fixtures at startup.
package seed

import (
	"context"
	"errors"
	"time"

	entitlementdomain "github.com/foundify/foundify/internal/entitlement/domain"
	"gorm.io/gorm"
)

type devAccount struct {
	ID    string
	Email string
}

var devAccounts = []devAccount{
	{ID: "dev_free", Email: "free@foundify.dev"},
	{ID: "dev_pro", Email: "pro@foundify.dev"},
}

// EnsureDevAccounts seeds fixture accounts for local development. Idempotent;
// never runs in production (the caller gates on configuration).
func EnsureDevAccounts(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fixture := range devAccounts {
			if err := tx.WithContext(ctx).Exec(
				`INSERT INTO accounts (id, tier, email, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (id) DO NOTHING`,
				fixture.ID,
				entitlementdomain.TierFree,
				fixture.Email,
				now,
				now,
			).Error; err != nil {
				return err
			}
		}

		// dev_pro carries a fake provider ref so PRO flows can be exercised
		// without a live billing account.
		ref := "cus_dev_pro"
		return tx.WithContext(ctx).Exec(
			`UPDATE accounts
			 SET tier = ?, billing_customer_ref = COALESCE(billing_customer_ref, ?),
			     tier_updated_at = COALESCE(tier_updated_at, ?), updated_at = ?
			 WHERE id = ?`,
			entitlementdomain.TierPro,
			ref,
			now,
			now,
			"dev_pro",
		).Error
	})
}
