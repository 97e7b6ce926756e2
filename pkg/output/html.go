package output

import (
	"bytes"
	"html/template"
	"io"

	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/pkg/format"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"currency": format.Currency,
	"percent":  func(rate float64) string { return format.Percent(rate * 100) },
	"buyer":    BuyerLabel,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Deal {{.ID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
td.amount { text-align: right; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>Deal summary</h1>
<table>
<tr><th>Price</th><td class="amount">{{currency .Price}}</td></tr>
<tr><th>Area</th><td class="amount">{{.Area}} m²</td></tr>
{{- if .PropertyType}}
<tr><th>Property type</th><td>{{.PropertyType}}</td></tr>
{{- end}}
<tr><th>VAT</th><td class="amount">{{percent .VATRate}}</td></tr>
</table>
<h2>Purchase tax</h2>
<table>
<tr><th>Buyer</th><th>Share</th><th>Track</th><th>Tax</th></tr>
{{- range $i, $e := .Breakdown}}
<tr><td>{{buyer $i $e.Buyer}}</td><td class="amount">{{$e.Buyer.SharePct}}%</td><td>{{$e.Track}}</td><td class="amount">{{currency $e.Tax}}</td></tr>
{{- end}}
<tr><th colspan="3">Total</th><td class="amount">{{currency .TotalTax}}</td></tr>
</table>
<h2>Services</h2>
<table>
<tr><th>Service</th><th>Cost</th></tr>
{{- range .ServiceBreakdown}}
<tr><td>{{.Label}}</td><td class="amount">{{currency .Cost}}</td></tr>
{{- end}}
<tr><th>Total</th><td class="amount">{{currency .ServiceTotal}}</td></tr>
</table>
<h2>Totals</h2>
<table>
{{- if gt .ConstructionCost 0.0}}
<tr><th>Construction</th><td class="amount">{{currency .ConstructionCost}}</td></tr>
{{- end}}
<tr><th>Total</th><td class="amount">{{currency .Total}}</td></tr>
<tr><th>Price per m² before costs</th><td class="amount">{{currency .PricePerSqBefore}}</td></tr>
<tr><th>Price per m² after costs</th><td class="amount">{{currency .PricePerSqAfter}}</td></tr>
</table>
</body>
</html>
`))

// HTMLFormat writes a printable HTML report of the result.
func HTMLFormat(w io.Writer, result deal.CalculationResult) error {
	return reportTemplate.Execute(w, result)
}

// HTMLString returns the HTML report as a string.
func HTMLString(result deal.CalculationResult) (string, error) {
	var buf bytes.Buffer
	if err := HTMLFormat(&buf, result); err != nil {
		return "", err
	}
	return buf.String(), nil
}
