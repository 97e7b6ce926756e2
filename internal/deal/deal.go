// Package deal composes the purchase tax and service cost calculators into
// the full cost of a property transaction.
package deal

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/iwvelando/deal-calculator/pkg/mathutil"
	"github.com/iwvelando/deal-calculator/pkg/purchasetax"
	"github.com/iwvelando/deal-calculator/pkg/servicecost"
	"go.uber.org/zap"
)

// Deal holds every input of a transaction calculation.
type Deal struct {
	Price        float64                    `json:"price"`
	Area         float64                    `json:"area"`
	PropertyType string                     `json:"propertyType,omitempty"`
	VATRate      float64                    `json:"vatRate"`
	Buyers       []purchasetax.Buyer        `json:"buyers"`
	Services     []servicecost.ServiceInput `json:"services"`
	Construction *servicecost.ServiceInput  `json:"construction,omitempty"`
}

// CalculationResult is the derived, never-persisted outcome of a Deal.
type CalculationResult struct {
	ID               string                    `json:"id"`
	Price            float64                   `json:"price"`
	Area             float64                   `json:"area"`
	PropertyType     string                    `json:"propertyType,omitempty"`
	VATRate          float64                   `json:"vatRate"`
	TotalTax         float64                   `json:"totalTax"`
	Breakdown        []purchasetax.BuyerTax    `json:"breakdown"`
	ServiceTotal     float64                   `json:"serviceTotal"`
	ServiceBreakdown []servicecost.ServiceCost `json:"serviceBreakdown"`
	ConstructionCost float64                   `json:"constructionCost"`
	Total            float64                   `json:"total"`
	PricePerSqBefore float64                   `json:"pricePerSqBefore"`
	PricePerSqAfter  float64                   `json:"pricePerSqAfter"`
}

var newID = uuid.NewString

// Calculate runs both calculators and composes the totals:
// total = price + tax + services + construction. Per-square-meter figures
// are 0 when the area is not positive.
func Calculate(logger *zap.Logger, d Deal) CalculationResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	price := mathutil.Sanitize(d.Price)
	area := mathutil.Sanitize(d.Area)
	vatRate := mathutil.Sanitize(d.VATRate)

	tax := purchasetax.Calculate(price, d.Buyers, purchasetax.Options{PropertyType: d.PropertyType})
	for _, entry := range tax.Breakdown {
		logger.Debug(fmt.Sprintf("buyer %q taxed on track %s: %.0f", entry.Buyer.Name, entry.Track, entry.Tax),
			zap.String("op", "deal.Calculate"),
		)
	}

	services := servicecost.Calculate(price, d.Services, vatRate)
	for _, entry := range services.Breakdown {
		logger.Debug(fmt.Sprintf("service %q costs %.0f", entry.Label, entry.Cost),
			zap.String("op", "deal.Calculate"),
		)
	}

	construction := 0.0
	if d.Construction != nil {
		construction = servicecost.Cost(price, *d.Construction, vatRate)
	}

	result := CalculationResult{
		ID:               newID(),
		Price:            price,
		Area:             area,
		PropertyType:     d.PropertyType,
		VATRate:          vatRate,
		TotalTax:         tax.TotalTax,
		Breakdown:        tax.Breakdown,
		ServiceTotal:     services.Total,
		ServiceBreakdown: services.Breakdown,
		ConstructionCost: construction,
	}
	total := price + result.TotalTax + result.ServiceTotal + result.ConstructionCost
	result.Total = mathutil.Sanitize(total)
	if result.Total != total {
		logger.Warn("deal total is out of range and is reported as 0",
			zap.String("op", "deal.Calculate"),
			zap.Float64("price", price),
		)
	}
	result.PricePerSqBefore = mathutil.Round(mathutil.SafeDivide(price, area))
	result.PricePerSqAfter = mathutil.Round(mathutil.SafeDivide(result.Total, area))

	logger.Info("deal calculated",
		zap.String("op", "deal.Calculate"),
		zap.String("id", result.ID),
		zap.Int("buyers", len(result.Breakdown)),
		zap.Int("services", len(result.ServiceBreakdown)),
		zap.Float64("total", result.Total),
	)

	return result
}
