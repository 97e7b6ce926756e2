package output

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/iwvelando/deal-calculator/internal/deal"
)

// utf8BOM lets spreadsheet applications detect UTF-8 (Hebrew labels).
const utf8BOM = "\ufeff"

// CsvHeader is the first row of every CSV export.
var CsvHeader = []string{"section", "item", "track", "amount"}

// CsvRows flattens a result into section/item/track/amount rows.
func CsvRows(result deal.CalculationResult) [][]string {
	rows := [][]string{
		{"deal", "price", "", amount(result.Price)},
		{"deal", "area", "", amount(result.Area)},
		{"deal", "vatRate", "", amount(result.VATRate)},
	}
	for i, entry := range result.Breakdown {
		rows = append(rows, []string{"tax", BuyerLabel(i, entry.Buyer), string(entry.Track), amount(entry.Tax)})
	}
	rows = append(rows, []string{"tax", "total", "", amount(result.TotalTax)})
	for _, entry := range result.ServiceBreakdown {
		rows = append(rows, []string{"service", entry.Label, "", amount(entry.Cost)})
	}
	rows = append(rows, []string{"service", "total", "", amount(result.ServiceTotal)})
	if result.ConstructionCost > 0 {
		rows = append(rows, []string{"construction", "construction", "", amount(result.ConstructionCost)})
	}
	rows = append(rows,
		[]string{"summary", "total", "", amount(result.Total)},
		[]string{"summary", "pricePerSqBefore", "", amount(result.PricePerSqBefore)},
		[]string{"summary", "pricePerSqAfter", "", amount(result.PricePerSqAfter)},
	)
	return rows
}

// CsvFormat writes the result as BOM-prefixed CSV.
func CsvFormat(w io.Writer, result deal.CalculationResult) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CsvHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(CsvRows(result)); err != nil {
		return err
	}
	return cw.Error()
}

// CsvString returns the CSV export as a string.
func CsvString(result deal.CalculationResult) string {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = CsvFormat(&buf, result)
	return buf.String()
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
