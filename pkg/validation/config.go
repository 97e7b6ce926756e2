// Package validation provides deal configuration validation utilities.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/purchasetax"
	"github.com/iwvelando/deal-calculator/pkg/servicecost"
)

// DealValidator collects warnings about a deal's inputs. None of them stop a
// calculation; the calculators clamp malformed numbers to zero.
type DealValidator struct {
	Price        float64
	Area         float64
	PropertyType string
	VATRate      *float64
	Buyers       []purchasetax.Buyer
	Services     []servicecost.ServiceInput
}

// ValidateShares warns when buyer shares do not sum to 100.
func ValidateShares(buyers []purchasetax.Buyer) []string {
	if len(buyers) == 0 {
		return []string{"Deal has no buyers - purchase tax will be 0"}
	}

	var warnings []string
	total := 0.0
	for i, buyer := range buyers {
		if math.IsNaN(buyer.SharePct) || buyer.SharePct < 0 || buyer.SharePct > constants.FullShare {
			warnings = append(warnings, fmt.Sprintf("Buyer %s has share %.2f%% outside 0-100 - it will be clamped",
				buyerName(i, buyer), buyer.SharePct))
			continue
		}
		total += buyer.SharePct
	}
	if math.Abs(total-constants.FullShare) > constants.ShareTolerance {
		warnings = append(warnings, fmt.Sprintf("Buyer shares sum to %.2f%%, expected 100%%", total))
	}
	return warnings
}

// ValidateBuyerFlags warns when a buyer has several eligibility flags, since
// only the highest-precedence track applies.
func ValidateBuyerFlags(buyers []purchasetax.Buyer, propertyType string) []string {
	var warnings []string
	for i, buyer := range buyers {
		if purchasetax.IsLand(propertyType) && buyer.FlagCount() > 0 {
			warnings = append(warnings, fmt.Sprintf("Buyer %s eligibility flags are ignored for land purchases",
				buyerName(i, buyer)))
			continue
		}
		if buyer.FlagCount() > 1 {
			warnings = append(warnings, fmt.Sprintf("Buyer %s has %d eligibility flags - only track '%s' applies",
				buyerName(i, buyer), buyer.FlagCount(), purchasetax.SelectTrack(buyer, propertyType)))
		}
	}
	return warnings
}

// ValidateServices warns about services without a cost and duplicate labels.
func ValidateServices(services []servicecost.ServiceInput) []string {
	var warnings []string
	seen := make(map[string]bool)
	for i, service := range services {
		label := service.Label
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			warnings = append(warnings, fmt.Sprintf("Service %s has no label", label))
		}
		if !service.Configured() {
			warnings = append(warnings, fmt.Sprintf("Service '%s' has neither percent nor amount - it will cost 0", label))
		}
		if service.Label != "" && seen[service.Label] {
			warnings = append(warnings, fmt.Sprintf("Service '%s' is listed more than once", service.Label))
		}
		seen[service.Label] = true
	}
	return warnings
}

// ValidatePropertyType warns about unknown property types.
func ValidatePropertyType(propertyType string) []string {
	switch strings.ToLower(strings.TrimSpace(propertyType)) {
	case "", constants.PropertyTypeResidential, constants.PropertyTypeLand:
		return nil
	default:
		return []string{fmt.Sprintf("Unknown property type '%s' - treated as %s",
			propertyType, constants.PropertyTypeResidential)}
	}
}

// ValidateAll validates the entire deal and returns warnings
func (dv *DealValidator) ValidateAll() []string {
	var warnings []string

	if dv.Price <= 0 {
		warnings = append(warnings, "Deal price is not positive - all costs derived from it will be 0")
	}
	if dv.Area <= 0 {
		warnings = append(warnings, "Deal area is not positive - price per square meter will be 0")
	}
	if dv.VATRate != nil && (*dv.VATRate < 0 || *dv.VATRate >= 1) {
		warnings = append(warnings, fmt.Sprintf("VAT rate %.4f should be a fraction such as 0.18", *dv.VATRate))
	}

	warnings = append(warnings, ValidatePropertyType(dv.PropertyType)...)
	warnings = append(warnings, ValidateShares(dv.Buyers)...)
	warnings = append(warnings, ValidateBuyerFlags(dv.Buyers, dv.PropertyType)...)
	warnings = append(warnings, ValidateServices(dv.Services)...)

	return warnings
}

func buyerName(i int, buyer purchasetax.Buyer) string {
	if buyer.Name != "" {
		return fmt.Sprintf("'%s'", buyer.Name)
	}
	return fmt.Sprintf("#%d", i+1)
}
