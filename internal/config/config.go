// Package config loads service configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings for the entitlement service.
type Config struct {
	Environment string
	HTTPAddr    string

	Database DatabaseConfig
	Stripe   StripeConfig
	Quota    QuotaConfig
	Billing  BillingConfig
	Tracing  TracingConfig

	// ServiceToken guards internal endpoints (analytics, account
	// provisioning). Compared in constant time; never logged.
	ServiceToken string

	Bootstrap BootstrapConfig
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

type QuotaConfig struct {
	// FreeMonthlyLimit is the number of generations a FREE account may
	// complete per UTC calendar month.
	FreeMonthlyLimit int

	// AuthorizeRateLimit / AuthorizeRateWindow bound authorize calls per
	// account to keep quota scans off the hot path under abuse.
	AuthorizeRateLimit  int
	AuthorizeRateWindow time.Duration
}

type BillingConfig struct {
	// DedupeWindow bounds how long processed billing events are retained
	// for duplicate detection.
	DedupeWindow time.Duration

	// JanitorInterval is how often the retention janitor prunes expired
	// billing event rows.
	JanitorInterval time.Duration
}

type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

type BootstrapConfig struct {
	SeedDevAccounts bool
}

// IsProduction reports whether the service runs with production hardening.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// Load reads configuration from FOUNDIFY_* environment variables.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("foundify")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("environment", "development")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("quota.free_monthly_limit", 1)
	v.SetDefault("quota.authorize_rate_limit", 30)
	v.SetDefault("quota.authorize_rate_window", time.Minute)
	v.SetDefault("billing.dedupe_window", 30*24*time.Hour)
	v.SetDefault("billing.janitor_interval", 6*time.Hour)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter_protocol", "grpc")
	v.SetDefault("tracing.sampling_ratio", 0.1)
	v.SetDefault("bootstrap.seed_dev_accounts", false)

	cfg := Config{
		Environment: v.GetString("environment"),
		HTTPAddr:    v.GetString("http.addr"),
		Database: DatabaseConfig{
			Driver: v.GetString("database.driver"),
			DSN:    v.GetString("database.dsn"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("stripe.secret_key"),
			WebhookSecret: v.GetString("stripe.webhook_secret"),
			PriceID:       v.GetString("stripe.price_id"),
			SuccessURL:    v.GetString("stripe.success_url"),
			CancelURL:     v.GetString("stripe.cancel_url"),
		},
		Quota: QuotaConfig{
			FreeMonthlyLimit:    v.GetInt("quota.free_monthly_limit"),
			AuthorizeRateLimit:  v.GetInt("quota.authorize_rate_limit"),
			AuthorizeRateWindow: v.GetDuration("quota.authorize_rate_window"),
		},
		Billing: BillingConfig{
			DedupeWindow:    v.GetDuration("billing.dedupe_window"),
			JanitorInterval: v.GetDuration("billing.janitor_interval"),
		},
		Tracing: TracingConfig{
			Enabled:          v.GetBool("tracing.enabled"),
			ExporterEndpoint: v.GetString("tracing.exporter_endpoint"),
			ExporterProtocol: v.GetString("tracing.exporter_protocol"),
			SamplingRatio:    v.GetFloat64("tracing.sampling_ratio"),
		},
		ServiceToken: v.GetString("service_token"),
		Bootstrap: BootstrapConfig{
			SeedDevAccounts: v.GetBool("bootstrap.seed_dev_accounts"),
		},
	}

	if cfg.Quota.FreeMonthlyLimit < 1 {
		cfg.Quota.FreeMonthlyLimit = 1
	}
	if cfg.Billing.DedupeWindow <= 0 {
		cfg.Billing.DedupeWindow = 30 * 24 * time.Hour
	}
	if cfg.Billing.JanitorInterval <= 0 {
		cfg.Billing.JanitorInterval = 6 * time.Hour
	}

	return cfg, nil
}
