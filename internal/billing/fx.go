package billing

import (
	"github.com/foundify/foundify/internal/billing/adapters"
	stripeadapter "github.com/foundify/foundify/internal/billing/adapters/stripe"
	"github.com/foundify/foundify/internal/billing/janitor"
	"github.com/foundify/foundify/internal/billing/repository"
	"github.com/foundify/foundify/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(
		fx.Annotate(
			stripeadapter.NewAdapter,
			fx.ResultTags(`group:"billing.adapters"`),
		),
		adapters.NewRegistry,
		repository.Provide,
		service.NewService,
		janitor.New,
	),
	fx.Invoke(janitor.Register),
)
