// Package metrics exposes Prometheus metrics for quota decisions and
// billing reconciliation.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config carries the constant labels stamped on every series.
type Config struct {
	Environment string
}

// NewMeterProvider bridges the otel metric API onto the default Prometheus
// registry so instrument-based metrics land on /metrics too.
func NewMeterProvider() (metric.MeterProvider, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)), nil
}

// Core counts the business-level outcomes of the entitlement engine.
type Core struct {
	quotaDecisions  *prometheus.CounterVec
	webhookOutcomes *prometheus.CounterVec
	eventsPruned    prometheus.Counter
	outboxPublished *prometheus.CounterVec
}

// NewCore registers the core counters on the default registry.
func NewCore(cfg Config) *Core {
	return newCore(prometheus.DefaultRegisterer, cfg)
}

func newCore(registerer prometheus.Registerer, cfg Config) *Core {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"env": environment}

	quotaDecisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "foundify_quota_decisions_total",
			Help:        "Generation authorization decisions by outcome and reason.",
			ConstLabels: constLabels,
		},
		[]string{"decision", "reason"},
	)
	webhookOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "foundify_billing_events_total",
			Help:        "Billing events processed by status and reason.",
			ConstLabels: constLabels,
		},
		[]string{"status", "reason"},
	)
	eventsPruned := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "foundify_billing_events_pruned_total",
			Help:        "Billing event rows removed by the dedupe janitor.",
			ConstLabels: constLabels,
		},
	)
	outboxPublished := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "foundify_notifications_enqueued_total",
			Help:        "Notification outbox rows enqueued by kind.",
			ConstLabels: constLabels,
		},
		[]string{"kind"},
	)

	registerer.MustRegister(quotaDecisions, webhookOutcomes, eventsPruned, outboxPublished)
	return &Core{
		quotaDecisions:  quotaDecisions,
		webhookOutcomes: webhookOutcomes,
		eventsPruned:    eventsPruned,
		outboxPublished: outboxPublished,
	}
}

func (m *Core) ObserveQuotaDecision(decision, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.quotaDecisions.WithLabelValues(decision, reason).Inc()
}

func (m *Core) ObserveWebhook(status, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.webhookOutcomes.WithLabelValues(status, reason).Inc()
}

func (m *Core) AddPruned(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.eventsPruned.Add(float64(count))
}

func (m *Core) ObserveNotification(kind string) {
	if m == nil {
		return
	}
	m.outboxPublished.WithLabelValues(kind).Inc()
}
