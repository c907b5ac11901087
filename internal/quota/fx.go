package quota

import (
	"github.com/foundify/foundify/internal/config"
	"github.com/foundify/foundify/internal/quota/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quota.service",
	fx.Provide(
		func(cfg config.Config) service.FreeMonthlyLimit {
			return service.FreeMonthlyLimit(cfg.Quota.FreeMonthlyLimit)
		},
		service.NewService,
	),
)
