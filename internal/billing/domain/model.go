package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventRecord is the dedupe ledger row for one received billing event. Rows
// older than the retention window are pruned; a redelivery after pruning is
// re-applied and must converge to the same state.
type EventRecord struct {
	ID          snowflake.ID   `gorm:"primaryKey"`
	EventID     string         `gorm:"type:text;not null;uniqueIndex:ux_billing_events_event_id"`
	Provider    string         `gorm:"type:text;not null"`
	EventType   string         `gorm:"type:text;not null"`
	AccountID   *string        `gorm:"type:text;index"`
	CustomerRef *string        `gorm:"type:text"`
	OccurredAt  time.Time      `gorm:"not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	// Status and Reason are set when processing finishes; a row with
	// ProcessedAt nil is claimed but unresolved and is re-examined on
	// redelivery.
	Status      *string    `gorm:"type:text"`
	Reason      *string    `gorm:"type:text"`
	ProcessedAt *time.Time `gorm:"index"`
	ReceivedAt  time.Time  `gorm:"not null;index"`
}

func (EventRecord) TableName() string { return "billing_events" }
