package events

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

func newOutbox(t *testing.T) (*Outbox, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: glogger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&NotificationEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return NewOutbox(Params{DB: db, GenID: node}), db
}

func TestPublishDedupesByKey(t *testing.T) {
	outbox, db := newOutbox(t)
	ctx := context.Background()
	notification := Notification{
		AccountID: "acc_1",
		Kind:      KindWelcome,
		DedupeKey: WelcomeDedupeKey("acc_1"),
		Payload:   map[string]any{"generation_id": "gen_1"},
	}

	enqueued, err := outbox.Publish(ctx, nil, notification)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !enqueued {
		t.Fatal("first publish must enqueue")
	}

	enqueued, err = outbox.Publish(ctx, nil, notification)
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if enqueued {
		t.Fatal("same dedupe key must not enqueue twice")
	}

	var count int64
	if err := db.Model(&NotificationEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows = %d, want 1", count)
	}
}

func TestPublishValidates(t *testing.T) {
	outbox, _ := newOutbox(t)
	ctx := context.Background()
	cases := []Notification{
		{Kind: KindWelcome, DedupeKey: "k"},
		{AccountID: "acc_1", DedupeKey: "k"},
		{AccountID: "acc_1", Kind: KindWelcome},
	}
	for _, notification := range cases {
		if _, err := outbox.Publish(ctx, nil, notification); err == nil {
			t.Fatalf("notification %+v: expected error", notification)
		}
	}
}

func TestDedupeKeys(t *testing.T) {
	if got := WelcomeDedupeKey("acc_1"); got != "welcome:acc_1" {
		t.Fatalf("WelcomeDedupeKey = %q", got)
	}
	if got := ProUpgradeDedupeKey("acc_1", "evt_9"); got != "pro_upgrade:acc_1:evt_9" {
		t.Fatalf("ProUpgradeDedupeKey = %q", got)
	}
}
