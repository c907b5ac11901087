package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/foundify/foundify/internal/observability/metrics"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification is one outbox row to enqueue.
type Notification struct {
	AccountID string
	Kind      string
	Payload   map[string]any
	DedupeKey string
}

// Outbox appends notification rows with at-most-once semantics per
// dedupe key.
type Outbox struct {
	db      *gorm.DB
	genID   *snowflake.Node
	metrics *metrics.Core
}

type Params struct {
	fx.In

	DB      *gorm.DB
	GenID   *snowflake.Node
	Metrics *metrics.Core `optional:"true"`
}

func NewOutbox(p Params) *Outbox {
	return &Outbox{db: p.DB, genID: p.GenID, metrics: p.Metrics}
}

// Publish inserts the notification. Returns false when the dedupe key was
// already enqueued. Callable inside an existing transaction via tx.
func (o *Outbox) Publish(ctx context.Context, tx *gorm.DB, n Notification) (bool, error) {
	if o == nil || o.genID == nil {
		return false, errors.New("outbox_unavailable")
	}
	db := tx
	if db == nil {
		db = o.db
	}

	accountID := strings.TrimSpace(n.AccountID)
	if accountID == "" {
		return false, errors.New("missing_account_id")
	}
	kind := strings.TrimSpace(n.Kind)
	if kind == "" {
		return false, errors.New("missing_notification_kind")
	}
	dedupeKey := strings.TrimSpace(n.DedupeKey)
	if dedupeKey == "" {
		return false, errors.New("missing_dedupe_key")
	}

	payload := datatypes.JSONMap{}
	for key, value := range n.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	result := db.WithContext(ctx).Exec(
		`INSERT INTO notification_events (id, account_id, kind, payload, dedupe_key, published, created_at)
		 VALUES (?, ?, ?, ?, ?, false, ?)
		 ON CONFLICT (dedupe_key) DO NOTHING`,
		o.genID.Generate(),
		accountID,
		kind,
		payload,
		dedupeKey,
		time.Now().UTC(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	enqueued := result.RowsAffected > 0
	if enqueued {
		o.metrics.ObserveNotification(kind)
	}
	return enqueued, nil
}
