// Package adapters routes webhook deliveries to provider adapters.
package adapters

import (
	"strings"

	"github.com/foundify/foundify/internal/billing/domain"
	"go.uber.org/fx"
)

type Registry struct {
	byProvider map[string]domain.Adapter
}

type Params struct {
	fx.In

	Adapters []domain.Adapter `group:"billing.adapters"`
}

func NewRegistry(p Params) *Registry {
	byProvider := make(map[string]domain.Adapter, len(p.Adapters))
	for _, adapter := range p.Adapters {
		if adapter == nil {
			continue
		}
		byProvider[strings.ToLower(adapter.Provider())] = adapter
	}
	return &Registry{byProvider: byProvider}
}

func (r *Registry) Get(provider string) (domain.Adapter, bool) {
	if r == nil {
		return nil, false
	}
	adapter, ok := r.byProvider[strings.ToLower(strings.TrimSpace(provider))]
	return adapter, ok
}
