// Package janitor prunes expired billing event dedupe rows.
package janitor

import (
	"context"
	"time"

	"github.com/foundify/foundify/internal/billing/domain"
	"github.com/foundify/foundify/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Janitor struct {
	log      *zap.Logger
	svc      domain.Service
	interval time.Duration
}

type Params struct {
	fx.In

	Log *zap.Logger
	Cfg config.Config
	Svc domain.Service
}

func New(p Params) *Janitor {
	interval := p.Cfg.Billing.JanitorInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Janitor{
		log:      p.Log.Named("billing.janitor"),
		svc:      p.Svc,
		interval: interval,
	}
}

// Run prunes on a fixed interval until ctx is canceled. One pass runs
// immediately on start so restarts do not postpone overdue cleanup.
func (j *Janitor) Run(ctx context.Context) {
	j.pruneOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.pruneOnce(ctx)
		}
	}
}

func (j *Janitor) pruneOnce(ctx context.Context) {
	if _, err := j.svc.PruneEvents(ctx); err != nil {
		j.log.Warn("billing event prune failed", zap.Error(err))
	}
}

// Register starts the janitor with the application lifecycle.
func Register(lc fx.Lifecycle, j *Janitor) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				j.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
