// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/deal-calculator/pkg/purchasetax"
	"github.com/iwvelando/deal-calculator/pkg/servicecost"
)

// Ptr returns a pointer to v, for optional numeric inputs.
func Ptr[T any](v T) *T {
	return &v
}

// FindBuyerTax finds a buyer's entry by name in a tax breakdown.
// Returns nil if no buyer has that name.
func FindBuyerTax(breakdown []purchasetax.BuyerTax, name string) *purchasetax.BuyerTax {
	for i := range breakdown {
		if breakdown[i].Buyer.Name == name {
			return &breakdown[i]
		}
	}
	return nil
}

// FindService finds a service cost by label.
// Returns nil if no service has that label.
func FindService(breakdown []servicecost.ServiceCost, label string) *servicecost.ServiceCost {
	for i := range breakdown {
		if breakdown[i].Label == label {
			return &breakdown[i]
		}
	}
	return nil
}
