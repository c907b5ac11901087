package entitlement

import (
	"github.com/foundify/foundify/internal/entitlement/repository"
	"github.com/foundify/foundify/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
