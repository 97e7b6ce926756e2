package config

import (
	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/pkg/servicecost"
)

// EffectiveServices returns the services a calculation should use. With
// UseDefaultServices the brokerage defaults come first; a configured service
// with the same label replaces its default in place.
func (d DealConfig) EffectiveServices() []servicecost.ServiceInput {
	if !d.UseDefaultServices {
		return append([]servicecost.ServiceInput(nil), d.Services...)
	}

	configured := make(map[string]servicecost.ServiceInput, len(d.Services))
	for _, s := range d.Services {
		configured[s.Label] = s
	}

	services := servicecost.DefaultServices()
	used := make(map[string]bool)
	for i, s := range services {
		if override, ok := configured[s.Label]; ok {
			services[i] = override
			used[s.Label] = true
		}
	}
	for _, s := range d.Services {
		if !used[s.Label] {
			services = append(services, s)
		}
	}
	return services
}

// ToDeal converts the configured deal into calculator input. vatRate is used
// unless the deal pins its own rate.
func (d DealConfig) ToDeal(vatRate float64) deal.Deal {
	if d.VATRate != nil {
		vatRate = *d.VATRate
	}
	return deal.Deal{
		Price:        d.Price,
		Area:         d.Area,
		PropertyType: d.PropertyType,
		VATRate:      vatRate,
		Buyers:       d.Buyers,
		Services:     d.EffectiveServices(),
		Construction: d.Construction,
	}
}
