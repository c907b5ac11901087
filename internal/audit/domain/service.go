package domain

import (
	"context"
	"errors"
)

type Service interface {
	// AuditLog appends one immutable record. accountID may be empty for
	// actions not tied to a single account.
	AuditLog(ctx context.Context, accountID string, actorType ActorType, action, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

var (
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidTarget = errors.New("invalid_target")
)
