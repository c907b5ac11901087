// Package observability wires logging, tracing, and metrics.
package observability

import (
	"github.com/foundify/foundify/internal/config"
	"github.com/foundify/foundify/internal/observability/logger"
	"github.com/foundify/foundify/internal/observability/metrics"
	"github.com/foundify/foundify/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) (*zap.Logger, error) {
		return logger.New(cfg.Environment)
	}),
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) error {
		_, err := tracing.NewProvider(lc, cfg, log)
		return err
	}),
	fx.Provide(metrics.NewMeterProvider),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(func(cfg config.Config) *metrics.Core {
		return metrics.NewCore(metrics.Config{Environment: cfg.Environment})
	}),
)
