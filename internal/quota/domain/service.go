// Package domain defines the quota decision contract.
package domain

import (
	"context"
	"time"
)

// Reason codes carried on DENY decisions. Quota exhaustion and storage
// failure are distinct so the UI can render an upgrade prompt for one and a
// retry prompt for the other.
const (
	ReasonFreeQuotaExceeded  = "free_quota_exceeded"
	ReasonUnknownAccount     = "unknown_account"
	ReasonStorageUnavailable = "storage_unavailable"
)

// Decision is the outcome of a generation authorization check.
type Decision struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason,omitempty"`
}

// Allow is the unconditional positive decision.
func Allow() Decision { return Decision{Allow: true} }

// Deny builds a negative decision with a reason code.
func Deny(reason string) Decision { return Decision{Allow: false, Reason: reason} }

// Service decides whether an account may start a new generation. The check
// is a pure read: an ALLOW does not reserve a quota slot (see package
// service for the documented race).
type Service interface {
	CanGenerate(ctx context.Context, accountID string) (Decision, error)
}

// MonthWindow returns the current UTC calendar month as a half-open
// [start, end) interval derived from now.
func MonthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
