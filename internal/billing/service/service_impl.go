// Package service implements billing event reconciliation.
//
// The reconciler never trusts receive order: a tier transition is stamped
// with the provider-side event time and the entitlement store rejects writes
// older than the last applied stamp. Dedupe is a claim-row insert keyed on
// the provider event ID; redelivery of a processed event is IGNORED, while
// redelivery of an event that never finished (unresolved account, crash
// between claim and apply) is processed again.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/foundify/foundify/internal/audit/domain"
	"github.com/foundify/foundify/internal/billing/adapters"
	"github.com/foundify/foundify/internal/billing/domain"
	"github.com/foundify/foundify/internal/clock"
	"github.com/foundify/foundify/internal/config"
	entitlementdomain "github.com/foundify/foundify/internal/entitlement/domain"
	"github.com/foundify/foundify/internal/events"
	"github.com/foundify/foundify/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	Cfg            config.Config
	Repo           domain.Repository
	EntitlementSvc entitlementdomain.Service
	AuditSvc       auditdomain.Service
	Outbox         *events.Outbox
	Adapters       *adapters.Registry
	Metrics        *metrics.Core `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	repo           domain.Repository
	entitlementSvc entitlementdomain.Service
	auditSvc       auditdomain.Service
	outbox         *events.Outbox
	adapters       *adapters.Registry
	metrics        *metrics.Core
	dedupeWindow   time.Duration
}

func NewService(p Params) domain.Service {
	window := p.Cfg.Billing.DedupeWindow
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("billing.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		entitlementSvc: p.EntitlementSvc,
		auditSvc:       p.AuditSvc,
		outbox:         p.Outbox,
		adapters:       p.Adapters,
		metrics:        p.Metrics,
		dedupeWindow:   window,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) (domain.Result, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return domain.Result{}, domain.ErrInvalidProvider
	}
	adapter, ok := s.adapters.Get(provider)
	if !ok {
		return domain.Result{}, domain.ErrProviderNotFound
	}
	if !json.Valid(payload) {
		return domain.Result{}, domain.ErrInvalidPayload
	}

	event, err := adapter.Parse(ctx, payload, headers)
	if err != nil {
		if errors.Is(err, domain.ErrEventIgnored) {
			return domain.Ignored(domain.ReasonUnsupportedEvent), nil
		}
		return domain.Result{}, err
	}
	if event == nil {
		return domain.Result{}, domain.ErrInvalidEvent
	}

	result, err := s.apply(ctx, *event, provider, payload)
	s.observe(result)
	return result, err
}

func (s *Service) ApplyEvent(ctx context.Context, event domain.Event) (domain.Result, error) {
	result, err := s.apply(ctx, event, "internal", nil)
	s.observe(result)
	return result, err
}

func (s *Service) apply(ctx context.Context, event domain.Event, provider string, payload []byte) (domain.Result, error) {
	event.ID = strings.TrimSpace(event.ID)
	event.Type = strings.TrimSpace(event.Type)
	if event.ID == "" || event.Type == "" || event.OccurredAt.IsZero() {
		return domain.Result{}, domain.ErrInvalidEvent
	}

	claimed, stored, err := s.claimEvent(ctx, event, provider, payload)
	if err != nil {
		return domain.Failed(domain.ReasonStorageUnavailable, true), err
	}
	if !claimed && stored != nil && stored.ProcessedAt != nil {
		s.log.Info("duplicate billing event ignored",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
		)
		return domain.Ignored(domain.ReasonDuplicateEvent), nil
	}

	result := s.reconcile(ctx, event)
	if result.Status == domain.StatusFailed && result.Retryable {
		// Leave the claim row unprocessed so the provider's redelivery is
		// reprocessed instead of deduped.
		return result, nil
	}

	if err := s.repo.MarkProcessed(ctx, s.db, event.ID, result.Status, result.Reason, s.clock.Now()); err != nil {
		return domain.Failed(domain.ReasonStorageUnavailable, true), err
	}
	return result, nil
}

func (s *Service) claimEvent(ctx context.Context, event domain.Event, provider string, payload []byte) (bool, *domain.EventRecord, error) {
	record := &domain.EventRecord{
		ID:         s.genID.Generate(),
		EventID:    event.ID,
		Provider:   provider,
		EventType:  event.Type,
		OccurredAt: event.OccurredAt.UTC(),
		ReceivedAt: s.clock.Now(),
	}
	if accountID := strings.TrimSpace(event.AccountID); accountID != "" {
		record.AccountID = &accountID
	}
	if customerRef := strings.TrimSpace(event.CustomerRef); customerRef != "" {
		record.CustomerRef = &customerRef
	}
	if len(payload) > 0 {
		record.Payload = payload
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, record)
	if err != nil {
		return false, nil, err
	}
	if inserted {
		return true, record, nil
	}
	stored, err := s.repo.FindEvent(ctx, s.db, event.ID)
	if err != nil {
		return false, nil, err
	}
	return false, stored, nil
}

func (s *Service) reconcile(ctx context.Context, event domain.Event) domain.Result {
	account, result := s.resolveAccount(ctx, event)
	if account == nil {
		return result
	}

	switch event.Type {
	case domain.EventTypeCheckoutCompleted, domain.EventTypeInvoicePaid:
		return s.upgrade(ctx, account, event)
	case domain.EventTypeSubscriptionCanceled:
		return s.downgrade(ctx, account, event)
	case domain.EventTypeInvoiceFailed:
		// Advisory only. Dunning is the provider's job; the subscription
		// stays PRO until an explicit cancellation arrives.
		s.writeAuditLog(ctx, account.ID, "billing.invoice_failed", event, nil)
		return domain.Applied()
	default:
		return domain.Ignored(domain.ReasonUnsupportedEvent)
	}
}

func (s *Service) resolveAccount(ctx context.Context, event domain.Event) (*entitlementdomain.Account, domain.Result) {
	if accountID := strings.TrimSpace(event.AccountID); accountID != "" {
		account, err := s.entitlementSvc.GetAccount(ctx, accountID)
		if err == nil {
			return account, domain.Result{}
		}
		if !errors.Is(err, entitlementdomain.ErrNotFound) {
			return nil, domain.Failed(domain.ReasonStorageUnavailable, true)
		}
	}

	if customerRef := strings.TrimSpace(event.CustomerRef); customerRef != "" {
		account, err := s.entitlementSvc.FindByBillingRef(ctx, customerRef)
		if err == nil {
			return account, domain.Result{}
		}
		if !errors.Is(err, entitlementdomain.ErrNotFound) {
			return nil, domain.Failed(domain.ReasonStorageUnavailable, true)
		}
	}

	s.log.Warn("billing event references no known account",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("account_id", event.AccountID),
		zap.String("customer_ref", event.CustomerRef),
	)
	return nil, domain.Failed(domain.ReasonUnresolvedAccount, true)
}

func (s *Service) upgrade(ctx context.Context, account *entitlementdomain.Account, event domain.Event) domain.Result {
	err := s.entitlementSvc.SetTier(ctx, account.ID, entitlementdomain.TierPro, event.OccurredAt, event.CustomerRef)
	if err != nil {
		switch {
		case errors.Is(err, entitlementdomain.ErrStaleTransition):
			return domain.Ignored(domain.ReasonStaleTransition)
		case errors.Is(err, entitlementdomain.ErrMissingBillingRef):
			return domain.Failed(domain.ReasonMissingCustomerRef, false)
		case errors.Is(err, entitlementdomain.ErrNotFound):
			return domain.Failed(domain.ReasonUnresolvedAccount, true)
		default:
			return domain.Failed(domain.ReasonStorageUnavailable, true)
		}
	}

	if _, err := s.outbox.Publish(ctx, nil, events.Notification{
		AccountID: account.ID,
		Kind:      events.KindProUpgrade,
		Payload:   map[string]any{"event_id": event.ID, "event_type": event.Type},
		DedupeKey: events.ProUpgradeDedupeKey(account.ID, event.ID),
	}); err != nil {
		s.log.Warn("pro upgrade notification enqueue failed",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}

	s.writeAuditLog(ctx, account.ID, "billing.tier_upgraded", event, map[string]any{
		"previous_tier": string(account.Tier),
	})
	return domain.Applied()
}

func (s *Service) downgrade(ctx context.Context, account *entitlementdomain.Account, event domain.Event) domain.Result {
	err := s.entitlementSvc.SetTier(ctx, account.ID, entitlementdomain.TierFree, event.OccurredAt, "")
	if err != nil {
		switch {
		case errors.Is(err, entitlementdomain.ErrStaleTransition):
			return domain.Ignored(domain.ReasonStaleTransition)
		case errors.Is(err, entitlementdomain.ErrNotFound):
			return domain.Failed(domain.ReasonUnresolvedAccount, true)
		default:
			return domain.Failed(domain.ReasonStorageUnavailable, true)
		}
	}

	s.writeAuditLog(ctx, account.ID, "billing.tier_downgraded", event, map[string]any{
		"previous_tier": string(account.Tier),
	})
	return domain.Applied()
}

func (s *Service) PruneEvents(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.dedupeWindow)
	pruned, err := s.repo.PruneReceivedBefore(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		s.metrics.AddPruned(pruned)
		s.log.Info("pruned billing events",
			zap.Int64("count", pruned),
			zap.Time("cutoff", cutoff),
		)
	}
	return pruned, nil
}

func (s *Service) writeAuditLog(ctx context.Context, accountID, action string, event domain.Event, extra map[string]any) {
	metadata := map[string]any{
		"event_id":    event.ID,
		"event_type":  event.Type,
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339),
	}
	if ref := strings.TrimSpace(event.CustomerRef); ref != "" {
		metadata["customer_ref"] = ref
	}
	for key, value := range extra {
		if key == "" {
			continue
		}
		metadata[key] = value
	}

	targetID := event.ID
	if err := s.auditSvc.AuditLog(ctx, accountID, auditdomain.ActorTypeBilling, action, "billing_event", &targetID, metadata); err != nil {
		s.log.Warn("audit write failed",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (s *Service) observe(result domain.Result) {
	if result.Status == "" {
		return
	}
	s.metrics.ObserveWebhook(strings.ToLower(string(result.Status)), result.Reason)
}
