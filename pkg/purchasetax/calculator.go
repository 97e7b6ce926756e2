// Package purchasetax computes real-estate purchase tax per buyer using
// progressive bracket tables selected by eligibility.
package purchasetax

import (
	"strings"

	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Buyer is one owner on a deal. Name is a display label only.
type Buyer struct {
	Name              string  `json:"name" yaml:"name"`
	SharePct          float64 `json:"sharePct" yaml:"sharePct"`
	IsFirstHome       bool    `json:"isFirstHome" yaml:"isFirstHome"`
	IsReplacementHome bool    `json:"isReplacementHome" yaml:"isReplacementHome"`
	Oleh              bool    `json:"oleh" yaml:"oleh"`
	Disabled          bool    `json:"disabled" yaml:"disabled"`
	BereavedFamily    bool    `json:"bereavedFamily" yaml:"bereavedFamily"`
}

// FlagCount returns how many eligibility flags are set on the buyer.
func (b Buyer) FlagCount() int {
	n := 0
	for _, set := range []bool{b.IsFirstHome, b.IsReplacementHome, b.Oleh, b.Disabled, b.BereavedFamily} {
		if set {
			n++
		}
	}
	return n
}

// Options tune a calculation.
type Options struct {
	PropertyType string `json:"propertyType,omitempty" yaml:"propertyType,omitempty"`
}

// BuyerTax is the computed tax for a single buyer.
type BuyerTax struct {
	Buyer Buyer   `json:"buyer"`
	Tax   float64 `json:"tax"`
	Track Track   `json:"track"`
}

// Result holds the per-buyer breakdown and the total.
type Result struct {
	TotalTax  float64    `json:"totalTax"`
	Breakdown []BuyerTax `json:"breakdown"`
}

// IsLand reports whether a property type names a land purchase, ignoring
// case and surrounding whitespace.
func IsLand(propertyType string) bool {
	return strings.EqualFold(strings.TrimSpace(propertyType), constants.PropertyTypeLand)
}

// SelectTrack picks exactly one track for a buyer. Land purchases always use
// the land track. Otherwise the first matching flag wins in the order
// bereaved family, disabled, oleh, replacement home, first home; buyers with
// no flag fall back to the regular track.
func SelectTrack(b Buyer, propertyType string) Track {
	if IsLand(propertyType) {
		return TrackLand
	}
	switch {
	case b.BereavedFamily:
		return TrackBereavedFamily
	case b.Disabled:
		return TrackDisabled
	case b.Oleh:
		return TrackOleh
	case b.IsReplacementHome:
		return TrackReplacementHome
	case b.IsFirstHome:
		return TrackFirstHome
	default:
		return TrackRegular
	}
}

// Calculate computes each buyer's tax on their own share of the price.
// Malformed numeric input is clamped to zero; Calculate never fails.
func Calculate(price float64, buyers []Buyer, opts Options) Result {
	result := Result{Breakdown: make([]BuyerTax, 0, len(buyers))}
	priceD := mathutil.ToDecimal(price)
	total := decimal.Zero

	for _, buyer := range buyers {
		track := SelectTrack(buyer, opts.PropertyType)
		taxable := mathutil.PercentOf(priceD, mathutil.ToDecimal(buyer.SharePct))
		tax := mathutil.RoundDecimal(taxOnValue(taxable, tables[track]))
		total = total.Add(tax)

		result.Breakdown = append(result.Breakdown, BuyerTax{
			Buyer: buyer,
			Tax:   tax.InexactFloat64(),
			Track: track,
		})
	}

	result.TotalTax = total.InexactFloat64()
	return result
}

// TaxOnValue applies a table as a progressive marginal schedule to a value,
// without rounding.
func TaxOnValue(value float64, table Table) float64 {
	return taxOnValue(mathutil.ToDecimal(value), table).InexactFloat64()
}

func taxOnValue(value decimal.Decimal, table Table) decimal.Decimal {
	tax := decimal.Zero
	previous := decimal.Zero

	for _, bracket := range table {
		if value.LessThanOrEqual(previous) {
			break
		}
		upper := value
		if bracket.UpTo != nil {
			limit := decimal.NewFromFloat(*bracket.UpTo)
			if limit.LessThan(upper) {
				upper = limit
			}
		}
		tax = tax.Add(upper.Sub(previous).Mul(decimal.NewFromFloat(bracket.Rate)))
		if bracket.UpTo == nil {
			break
		}
		previous = decimal.NewFromFloat(*bracket.UpTo)
	}

	return tax
}
