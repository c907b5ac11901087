// Package domain defines the entitlement records this service owns.
package domain

import (
	"time"
)

// Tier is an account's entitlement level.
type Tier string

const (
	TierFree Tier = "FREE"
	TierPro  Tier = "PRO"
)

// Valid reports whether the tier is one of the known values.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPro
}

// Account is the durable entitlement record for one end user. The account ID
// is issued by the external identity provider; this service only stores it.
type Account struct {
	ID string `gorm:"primaryKey;type:text" json:"id"`

	// Tier is mutated only by the billing reconciler, guarded by
	// TierUpdatedAt (last writer wins by event time).
	Tier Tier `gorm:"type:text;not null;default:FREE" json:"tier"`

	// BillingCustomerRef points at the payment provider's customer record.
	// Set once on first checkout, never cleared; a FREE account with a
	// non-nil ref is a lapsed subscriber.
	BillingCustomerRef *string `gorm:"type:text;uniqueIndex" json:"billing_customer_ref"`

	// TierUpdatedAt is the occurred-at of the event that last moved Tier.
	// Nil until the first transition.
	TierUpdatedAt *time.Time `json:"tier_updated_at"`

	Email     string    `gorm:"type:text" json:"email"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }
