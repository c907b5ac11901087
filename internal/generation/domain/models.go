// Package domain holds the append-only generation ledger types.
package domain

import "time"

// Record marks one successfully completed generation. Rows are written only
// after the downstream generator confirms success, are never mutated, and
// are never deleted; the quota engine counts them per UTC month.
type Record struct {
	// ID is the generation identifier minted by the caller when the
	// downstream generation completed.
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	AccountID string    `gorm:"type:text;not null;index:ix_generation_records_account_created,priority:1" json:"account_id"`
	CreatedAt time.Time `gorm:"not null;index:ix_generation_records_account_created,priority:2" json:"created_at"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "generation_records" }
