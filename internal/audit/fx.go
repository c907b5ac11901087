package audit

import (
	"github.com/foundify/foundify/internal/audit/repository"
	"github.com/foundify/foundify/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
