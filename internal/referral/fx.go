package referral

import (
	"github.com/foundify/foundify/internal/referral/repository"
	"github.com/foundify/foundify/internal/referral/service"
	"go.uber.org/fx"
)

var Module = fx.Module("referral.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
