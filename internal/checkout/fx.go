package checkout

import (
	stripeprovider "github.com/foundify/foundify/internal/checkout/provider/stripe"
	"github.com/foundify/foundify/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(
		stripeprovider.NewProvider,
		service.NewService,
	),
)
