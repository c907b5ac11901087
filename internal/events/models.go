package events

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationEvent is one undelivered trigger for the mail drainer.
type NotificationEvent struct {
	ID        int64             `gorm:"column:id;primaryKey"`
	AccountID string            `gorm:"column:account_id;index"`
	Kind      string            `gorm:"column:kind"`
	Payload   datatypes.JSONMap `gorm:"column:payload"`
	DedupeKey string            `gorm:"column:dedupe_key;uniqueIndex"`
	Published bool              `gorm:"column:published"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

func (NotificationEvent) TableName() string {
	return "notification_events"
}
