// Package output provides utilities for formatting and displaying deal results.
package output

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/pkg/format"
	"github.com/iwvelando/deal-calculator/pkg/mortgage"
	"github.com/iwvelando/deal-calculator/pkg/purchasetax"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable summary.
func PrettyFormat(w io.Writer, result deal.CalculationResult) {
	p := message.NewPrinter(language.English)

	_, _ = fmt.Fprintf(w, "--- Deal %s ---\n", result.ID)
	_, _ = fmt.Fprintf(w, "Price: %s\n", format.Currency(result.Price))
	_, _ = p.Fprintf(w, "Area: %.0f m²\n", result.Area)
	if result.PropertyType != "" {
		_, _ = fmt.Fprintf(w, "Property type: %s\n", result.PropertyType)
	}
	_, _ = fmt.Fprintf(w, "VAT: %s\n", format.Percent(result.VATRate*100))

	_, _ = fmt.Fprintf(w, "\nBuyer        | Track            | Tax\n")
	_, _ = fmt.Fprintf(w, "_____        | _____            | ___\n")
	for i, entry := range result.Breakdown {
		_, _ = fmt.Fprintf(w, "%-12s | %-16s | %s\n", BuyerLabel(i, entry.Buyer), entry.Track, format.Currency(entry.Tax))
	}
	_, _ = fmt.Fprintf(w, "Purchase tax total: %s\n", format.Currency(result.TotalTax))

	_, _ = fmt.Fprintf(w, "\nService              | Cost\n")
	_, _ = fmt.Fprintf(w, "_______              | ____\n")
	for _, entry := range result.ServiceBreakdown {
		_, _ = fmt.Fprintf(w, "%-20s | %s\n", entry.Label, format.Currency(entry.Cost))
	}
	_, _ = fmt.Fprintf(w, "Services total: %s\n", format.Currency(result.ServiceTotal))

	if result.ConstructionCost > 0 {
		_, _ = fmt.Fprintf(w, "Construction: %s\n", format.Currency(result.ConstructionCost))
	}

	_, _ = fmt.Fprintf(w, "\nTotal: %s\n", format.Currency(result.Total))
	_, _ = fmt.Fprintf(w, "Price per m² before costs: %s\n", format.Currency(result.PricePerSqBefore))
	_, _ = fmt.Fprintf(w, "Price per m² after costs: %s\n", format.Currency(result.PricePerSqAfter))
}

// PrettyMortgage writes a mortgage summary. With schedule set every payment
// row is listed.
func PrettyMortgage(w io.Writer, summary mortgage.Summary, schedule bool) {
	_, _ = fmt.Fprintf(w, "--- Mortgage ---\n")
	_, _ = fmt.Fprintf(w, "Loan amount: %s\n", format.Currency(summary.LoanAmount))
	_, _ = fmt.Fprintf(w, "Monthly payment: %s\n", format.CurrencyPrecise(summary.MonthlyPayment))
	_, _ = fmt.Fprintf(w, "Total interest: %s\n", format.CurrencyPrecise(summary.TotalInterest))
	_, _ = fmt.Fprintf(w, "Total paid: %s\n", format.CurrencyPrecise(summary.TotalPaid))
	if summary.LoanToValue > 0 {
		_, _ = fmt.Fprintf(w, "Loan to value: %s\n", format.Percent(summary.LoanToValue))
	}

	if !schedule {
		return
	}
	_, _ = fmt.Fprintf(w, "\n#    | Month   | Payment      | Principal    | Interest     | Remaining\n")
	for i, payment := range summary.Schedule {
		_, _ = fmt.Fprintf(w, "%-4d | %-7s | %-12s | %-12s | %-12s | %s\n",
			i+1,
			payment.Month,
			format.CurrencyPrecise(payment.Payment),
			format.CurrencyPrecise(payment.Principal),
			format.CurrencyPrecise(payment.Interest),
			format.CurrencyPrecise(payment.RemainingPrincipal),
		)
	}
}

// JSONFormat writes v as indented JSON.
func JSONFormat(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// BuyerLabel returns the buyer's name or a positional label.
func BuyerLabel(i int, buyer purchasetax.Buyer) string {
	if buyer.Name != "" {
		return buyer.Name
	}
	return fmt.Sprintf("buyer #%d", i+1)
}
