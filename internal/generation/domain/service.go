package domain

import (
	"context"
	"errors"
	"time"
)

// Service appends confirmed generations and serves quota counting reads.
type Service interface {
	// Record appends the ledger row for a confirmed generation. Idempotent
	// on generation ID: a redelivered confirmation returns the stored row
	// and counts once. The account's first-ever record enqueues the welcome
	// notification exactly once.
	Record(ctx context.Context, accountID, generationID string) (*Record, error)

	// CountInWindow counts an account's records with created_at in
	// [from, to).
	CountInWindow(ctx context.Context, accountID string, from, to time.Time) (int64, error)
}

var (
	ErrInvalidAccount    = errors.New("invalid_account")
	ErrInvalidGeneration = errors.New("invalid_generation")
	ErrOwnershipMismatch = errors.New("generation_owned_by_other_account")
)
