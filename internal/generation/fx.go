package generation

import (
	"github.com/foundify/foundify/internal/generation/repository"
	"github.com/foundify/foundify/internal/generation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("generation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
