// Package servicecost aggregates ancillary deal expenses (brokerage, legal,
// appraisal and the like) into a VAT-adjusted total and breakdown.
package servicecost

import (
	"github.com/iwvelando/deal-calculator/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// ServiceInput is one cost line. Percent and Amount are both optional and
// additive: a service may have a percentage component and a flat component.
type ServiceInput struct {
	Label       string   `json:"label" yaml:"label"`
	Percent     *float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
	Amount      *float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	IncludesVAT bool     `json:"includesVat" yaml:"includesVat"`
}

// Configured reports whether the service has a percent or amount set.
func (s ServiceInput) Configured() bool {
	return s.Percent != nil || s.Amount != nil
}

// ServiceCost is the computed cost of one service.
type ServiceCost struct {
	Label string  `json:"label"`
	Cost  float64 `json:"cost"`
}

// Result holds the per-service breakdown and the total.
type Result struct {
	Total     float64       `json:"total"`
	Breakdown []ServiceCost `json:"breakdown"`
}

// Calculate computes every service's cost. vatRate is a fraction (0.18 for
// 18%). Unconfigured services still appear in the breakdown with a zero cost.
// Malformed numbers, including the VAT rate, are clamped to zero.
func Calculate(price float64, services []ServiceInput, vatRate float64) Result {
	result := Result{Breakdown: make([]ServiceCost, 0, len(services))}
	priceD := mathutil.ToDecimal(price)
	vatMultiplier := decimal.NewFromInt(1).Add(mathutil.ToDecimal(vatRate))
	total := decimal.Zero

	for _, service := range services {
		cost := serviceCost(priceD, service, vatMultiplier)
		total = total.Add(cost)
		result.Breakdown = append(result.Breakdown, ServiceCost{
			Label: service.Label,
			Cost:  cost.InexactFloat64(),
		})
	}

	result.Total = total.InexactFloat64()
	return result
}

// Cost computes the rounded cost of a single service.
func Cost(price float64, service ServiceInput, vatRate float64) float64 {
	vatMultiplier := decimal.NewFromInt(1).Add(mathutil.ToDecimal(vatRate))
	return serviceCost(mathutil.ToDecimal(price), service, vatMultiplier).InexactFloat64()
}

func serviceCost(price decimal.Decimal, service ServiceInput, vatMultiplier decimal.Decimal) decimal.Decimal {
	base := decimal.Zero
	if service.Percent != nil {
		base = base.Add(mathutil.PercentOf(price, mathutil.ToDecimal(*service.Percent)))
	}
	if service.Amount != nil {
		base = base.Add(mathutil.ToDecimal(*service.Amount))
	}
	if !service.IncludesVAT {
		base = base.Mul(vatMultiplier)
	}
	return mathutil.RoundDecimal(base)
}
