package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/foundify/foundify/internal/audit/domain"
	auditrepo "github.com/foundify/foundify/internal/audit/repository"
	auditsvc "github.com/foundify/foundify/internal/audit/service"
	"github.com/foundify/foundify/internal/billing/adapters"
	"github.com/foundify/foundify/internal/billing/domain"
	billingrepo "github.com/foundify/foundify/internal/billing/repository"
	"github.com/foundify/foundify/internal/clock"
	"github.com/foundify/foundify/internal/config"
	entitlementdomain "github.com/foundify/foundify/internal/entitlement/domain"
	entitlementrepo "github.com/foundify/foundify/internal/entitlement/repository"
	entitlementsvc "github.com/foundify/foundify/internal/entitlement/service"
	"github.com/foundify/foundify/internal/events"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

type fixture struct {
	db             *gorm.DB
	svc            domain.Service
	entitlementSvc entitlementdomain.Service
	auditSvc       auditdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: glogger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&entitlementdomain.Account{},
		&domain.EventRecord{},
		&auditdomain.AuditLog{},
		&events.NotificationEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	now := clock.SystemClock{}

	entSvc := entitlementsvc.NewService(entitlementsvc.Params{
		DB:    db,
		Log:   log,
		Clock: now,
		Repo:  entitlementrepo.Provide(),
	})
	audSvc := auditsvc.NewService(auditsvc.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	outbox := events.NewOutbox(events.Params{DB: db, GenID: node})

	svc := NewService(Params{
		DB:             db,
		Log:            log,
		GenID:          node,
		Clock:          now,
		Cfg:            config.Config{Billing: config.BillingConfig{DedupeWindow: 30 * 24 * time.Hour}},
		Repo:           billingrepo.Provide(),
		EntitlementSvc: entSvc,
		AuditSvc:       audSvc,
		Outbox:         outbox,
		Adapters:       adapters.NewRegistry(adapters.Params{}),
	})
	return &fixture{db: db, svc: svc, entitlementSvc: entSvc, auditSvc: audSvc}
}

func (f *fixture) mustAccount(t *testing.T, accountID string) {
	t.Helper()
	if _, err := f.entitlementSvc.EnsureAccount(context.Background(), accountID, accountID+"@example.com"); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
}

func (f *fixture) tierOf(t *testing.T, accountID string) entitlementdomain.Tier {
	t.Helper()
	account, err := f.entitlementSvc.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return account.Tier
}

func checkoutEvent(id, accountID string, occurredAt time.Time) domain.Event {
	return domain.Event{
		ID:          id,
		Type:        domain.EventTypeCheckoutCompleted,
		OccurredAt:  occurredAt,
		AccountID:   accountID,
		CustomerRef: "cus_" + accountID,
	}
}

func TestApplyEventUpgradesOnCheckout(t *testing.T) {
	f := newFixture(t)
	f.mustAccount(t, "acc_1")
	occurred := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

	result, err := f.svc.ApplyEvent(context.Background(), checkoutEvent("evt_1", "acc_1", occurred))
	if err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if result.Status != domain.StatusApplied {
		t.Fatalf("status = %s (%s), want APPLIED", result.Status, result.Reason)
	}
	if tier := f.tierOf(t, "acc_1"); tier != entitlementdomain.TierPro {
		t.Fatalf("tier = %s, want PRO", tier)
	}

	var notifications int64
	if err := f.db.Model(&events.NotificationEvent{}).Where("kind = ?", events.KindProUpgrade).Count(&notifications).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if notifications != 1 {
		t.Fatalf("pro upgrade notifications = %d, want 1", notifications)
	}
}

func TestApplyEventDuplicateIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.mustAccount(t, "acc_1")
	occurred := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	event := checkoutEvent("evt_dup", "acc_1", occurred)

	if _, err := f.svc.ApplyEvent(context.Background(), event); err != nil {
		t.Fatalf("first ApplyEvent: %v", err)
	}
	result, err := f.svc.ApplyEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("second ApplyEvent: %v", err)
	}
	if result.Status != domain.StatusIgnored || result.Reason != domain.ReasonDuplicateEvent {
		t.Fatalf("result = %s (%s), want IGNORED (duplicate_event)", result.Status, result.Reason)
	}
	if tier := f.tierOf(t, "acc_1"); tier != entitlementdomain.TierPro {
		t.Fatalf("tier = %s, want PRO after duplicate", tier)
	}

	var notifications int64
	if err := f.db.Model(&events.NotificationEvent{}).Where("kind = ?", events.KindProUpgrade).Count(&notifications).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if notifications != 1 {
		t.Fatalf("duplicate enqueued a second notification: %d", notifications)
	}
}

// A cancellation that happened before the upgrade, delivered after it, must
// not downgrade the account.
func TestApplyEventStaleCancellationIgnored(t *testing.T) {
	f := newFixture(t)
	f.mustAccount(t, "acc_1")
	upgradeAt := time.Date(2024, time.May, 2, 10, 0, 0, 0, time.UTC)
	cancelAt := upgradeAt.Add(-time.Hour)

	if _, err := f.svc.ApplyEvent(context.Background(), checkoutEvent("evt_up", "acc_1", upgradeAt)); err != nil {
		t.Fatalf("upgrade: %v", err)
	}

	result, err := f.svc.ApplyEvent(context.Background(), domain.Event{
		ID:          "evt_cancel",
		Type:        domain.EventTypeSubscriptionCanceled,
		OccurredAt:  cancelAt,
		AccountID:   "acc_1",
		CustomerRef: "cus_acc_1",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.Status != domain.StatusIgnored || result.Reason != domain.ReasonStaleTransition {
		t.Fatalf("result = %s (%s), want IGNORED (stale_transition)", result.Status, result.Reason)
	}
	if tier := f.tierOf(t, "acc_1"); tier != entitlementdomain.TierPro {
		t.Fatalf("stale cancellation downgraded the account to %s", tier)
	}
}

// The mirror ordering: cancellation delivered first with a later event time,
// then the older upgrade arrives. The account must end FREE.
func TestApplyEventLateUpgradeAfterCancellation(t *testing.T) {
	f := newFixture(t)
	f.mustAccount(t, "acc_1")
	upgradeAt := time.Date(2024, time.May, 2, 10, 0, 0, 0, time.UTC)
	cancelAt := upgradeAt.Add(time.Hour)

	// The account had been PRO before; seed ref so cancellation resolves.
	if _, err := f.svc.ApplyEvent(context.Background(), checkoutEvent("evt_seed", "acc_1", upgradeAt.Add(-24*time.Hour))); err != nil {
		t.Fatalf("seed upgrade: %v", err)
	}

	if _, err := f.svc.ApplyEvent(context.Background(), domain.Event{
		ID:          "evt_cancel",
		Type:        domain.EventTypeSubscriptionCanceled,
		OccurredAt:  cancelAt,
		CustomerRef: "cus_acc_1",
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if tier := f.tierOf(t, "acc_1"); tier != entitlementdomain.TierFree {
		t.Fatalf("tier = %s, want FREE after cancellation", tier)
	}

	result, err := f.svc.ApplyEvent(context.Background(), checkoutEvent("evt_up", "acc_1", upgradeAt))
	if err != nil {
		t.Fatalf("late upgrade: %v", err)
	}
	if result.Status != domain.StatusIgnored || result.Reason != domain.ReasonStaleTransition {
		t.Fatalf("result = %s (%s), want IGNORED (stale_transition)", result.Status, result.Reason)
	}
	if tier := f.tierOf(t, "acc_1"); tier != entitlementdomain.TierFree {
		t.Fatalf("late upgrade resurrected tier %s", tier)
	}
}

func TestApplyEventInvoiceFailedIsAdvisory(t *testing.T) {
	f := newFixture(t)
	f.mustAccount(t, "acc_1")
	occurred := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

	if _, err := f.svc.ApplyEvent(context.Background(), checkoutEvent("evt_up", "acc_1", occurred)); err != nil {
		t.Fatalf("upgrade: %v", err)
	}

	result, err := f.svc.ApplyEvent(context.Background(), domain.Event{
		ID:          "evt_fail",
		Type:        domain.EventTypeInvoiceFailed,
		OccurredAt:  occurred.Add(30 * 24 * time.Hour),
		CustomerRef: "cus_acc_1",
	})
	if err != nil {
		t.Fatalf("invoice failed event: %v", err)
	}
	if result.Status != domain.StatusApplied {
		t.Fatalf("result = %s (%s), want APPLIED", result.Status, result.Reason)
	}
	if tier := f.tierOf(t, "acc_1"); tier != entitlementdomain.TierPro {
		t.Fatalf("invoice failure downgraded the account to %s", tier)
	}

	logs, err := f.auditSvc.List(context.Background(), auditdomain.ListFilter{Action: "billing.invoice_failed"})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("advisory audit entries = %d, want 1", len(logs))
	}
}

func TestApplyEventUnresolvedAccountIsRetryable(t *testing.T) {
	f := newFixture(t)
	occurred := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	event := checkoutEvent("evt_orphan", "acc_later", occurred)

	result, err := f.svc.ApplyEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if result.Status != domain.StatusFailed || result.Reason != domain.ReasonUnresolvedAccount {
		t.Fatalf("result = %s (%s), want FAILED (unresolved_account)", result.Status, result.Reason)
	}
	if !result.Retryable {
		t.Fatal("unresolved account must be retryable")
	}

	// Provisioning races webhooks; a redelivery after the account exists
	// must apply rather than dedupe against the failed attempt.
	f.mustAccount(t, "acc_later")
	result, err = f.svc.ApplyEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if result.Status != domain.StatusApplied {
		t.Fatalf("redelivery result = %s (%s), want APPLIED", result.Status, result.Reason)
	}
	if tier := f.tierOf(t, "acc_later"); tier != entitlementdomain.TierPro {
		t.Fatalf("tier = %s, want PRO after redelivery", tier)
	}
}

func TestApplyEventResolvesByCustomerRef(t *testing.T) {
	f := newFixture(t)
	f.mustAccount(t, "acc_1")
	occurred := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

	if _, err := f.svc.ApplyEvent(context.Background(), checkoutEvent("evt_up", "acc_1", occurred)); err != nil {
		t.Fatalf("upgrade: %v", err)
	}

	// Renewal invoices carry only the provider customer ref.
	result, err := f.svc.ApplyEvent(context.Background(), domain.Event{
		ID:          "evt_renewal",
		Type:        domain.EventTypeInvoicePaid,
		OccurredAt:  occurred.Add(30 * 24 * time.Hour),
		CustomerRef: "cus_acc_1",
	})
	if err != nil {
		t.Fatalf("renewal: %v", err)
	}
	if result.Status != domain.StatusApplied {
		t.Fatalf("result = %s (%s), want APPLIED", result.Status, result.Reason)
	}
}

func TestApplyEventRejectsMalformedEvents(t *testing.T) {
	f := newFixture(t)
	cases := []domain.Event{
		{Type: domain.EventTypeInvoicePaid, OccurredAt: time.Now()},
		{ID: "evt_1", OccurredAt: time.Now()},
		{ID: "evt_1", Type: domain.EventTypeInvoicePaid},
	}
	for _, event := range cases {
		if _, err := f.svc.ApplyEvent(context.Background(), event); !errors.Is(err, domain.ErrInvalidEvent) {
			t.Fatalf("event %+v: err = %v, want ErrInvalidEvent", event, err)
		}
	}
}

func TestPruneEvents(t *testing.T) {
	f := newFixture(t)
	f.mustAccount(t, "acc_1")
	occurred := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

	if _, err := f.svc.ApplyEvent(context.Background(), checkoutEvent("evt_old", "acc_1", occurred)); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	// Age the stored row past the retention window.
	aged := time.Now().UTC().Add(-31 * 24 * time.Hour)
	if err := f.db.Exec(`UPDATE billing_events SET received_at = ? WHERE event_id = ?`, aged, "evt_old").Error; err != nil {
		t.Fatalf("age row: %v", err)
	}

	pruned, err := f.svc.PruneEvents(context.Background())
	if err != nil {
		t.Fatalf("PruneEvents: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned = %d, want 1", pruned)
	}

	// After pruning, a redelivery re-applies and still converges.
	result, err := f.svc.ApplyEvent(context.Background(), checkoutEvent("evt_old", "acc_1", occurred))
	if err != nil {
		t.Fatalf("redelivery after prune: %v", err)
	}
	if result.Status != domain.StatusApplied {
		t.Fatalf("redelivery result = %s (%s), want APPLIED", result.Status, result.Reason)
	}
	if tier := f.tierOf(t, "acc_1"); tier != entitlementdomain.TierPro {
		t.Fatalf("tier = %s, want PRO", tier)
	}
}

type stubAdapter struct {
	event *domain.Event
	err   error
}

func (stubAdapter) Provider() string { return "stub" }

func (a stubAdapter) Parse(ctx context.Context, payload []byte, headers http.Header) (*domain.Event, error) {
	return a.event, a.err
}

func newStubbedService(t *testing.T, adapter domain.Adapter) domain.Service {
	t.Helper()
	f := newFixture(t)
	impl := f.svc.(*Service)
	impl.adapters = adapters.NewRegistry(adapters.Params{Adapters: []domain.Adapter{adapter}})
	return impl
}

func TestIngestWebhookUnknownProvider(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.IngestWebhook(context.Background(), "paypal", []byte(`{}`), http.Header{})
	if !errors.Is(err, domain.ErrProviderNotFound) {
		t.Fatalf("err = %v, want ErrProviderNotFound", err)
	}
}

func TestIngestWebhookRejectsInvalidJSON(t *testing.T) {
	svc := newStubbedService(t, stubAdapter{})
	_, err := svc.IngestWebhook(context.Background(), "stub", []byte("{"), http.Header{})
	if !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
}

func TestIngestWebhookIgnoresForeignEvents(t *testing.T) {
	svc := newStubbedService(t, stubAdapter{err: domain.ErrEventIgnored})
	result, err := svc.IngestWebhook(context.Background(), "stub", []byte(`{}`), http.Header{})
	if err != nil {
		t.Fatalf("IngestWebhook: %v", err)
	}
	if result.Status != domain.StatusIgnored || result.Reason != domain.ReasonUnsupportedEvent {
		t.Fatalf("result = %s (%s), want IGNORED (unsupported_event)", result.Status, result.Reason)
	}
}

func TestIngestWebhookPropagatesSignatureFailure(t *testing.T) {
	svc := newStubbedService(t, stubAdapter{err: domain.ErrInvalidSignature})
	_, err := svc.IngestWebhook(context.Background(), "stub", []byte(`{}`), http.Header{})
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}
