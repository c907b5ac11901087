package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered an action.
type ActorType string

const (
	ActorTypeSystem  ActorType = "system"
	ActorTypeBilling ActorType = "billing_provider"
	ActorTypeUser    ActorType = "user"
)

// AuditLog captures an immutable record of an entitlement or billing action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	AccountID  *string           `gorm:"type:text;index"`
	ActorType  string            `gorm:"type:text;not null"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
