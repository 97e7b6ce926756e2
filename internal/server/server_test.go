package server

import (
	"bytes"
	"context"
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/iwvelando/deal-calculator/internal/vat"
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/mortgage"
	"github.com/iwvelando/deal-calculator/pkg/purchasetax"
	"github.com/iwvelando/deal-calculator/pkg/servicecost"
	"go.uber.org/zap"
)

type stubRates struct {
	rate     float64
	err      error
	fallback float64
	calls    int
}

func (s *stubRates) Fetch(ctx context.Context) (vat.Rate, error) {
	s.calls++
	if s.err != nil {
		return vat.Rate{}, s.err
	}
	return vat.Rate{Rate: s.rate, UpdatedAt: "2025-01-01"}, nil
}

func (s *stubRates) Fallback() float64 {
	return s.fallback
}

const firstHomeDeal = `{
  "price": 3000000,
  "area": 100,
  "buyers": [{"name": "Dana", "sharePct": 100, "isFirstHome": true}],
  "services": [
    {"label": "broker", "percent": 2},
    {"label": "legal", "amount": 10000, "includesVat": true}
  ]
}`

func newTestHandler(rates RateSource) http.Handler {
	return NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "", rates, "")
}

func post(t *testing.T, handler http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func decodeCalculate(t *testing.T, rr *httptest.ResponseRecorder) calculateResponse {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp calculateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandleCalculateSuccess(t *testing.T) {
	rates := &stubRates{rate: 0.18, fallback: 0.17}
	resp := decodeCalculate(t, post(t, newTestHandler(rates), "/api/calculate", firstHomeDeal))

	if resp.Result.TotalTax != 45538 {
		t.Errorf("total tax = %v, expected 45538", resp.Result.TotalTax)
	}
	if resp.Result.ServiceTotal != 80800 {
		t.Errorf("service total = %v, expected 80800", resp.Result.ServiceTotal)
	}
	if resp.Result.Total != 3126338 {
		t.Errorf("total = %v, expected 3126338", resp.Result.Total)
	}
	if resp.Result.VATRate != 0.18 || rates.calls != 1 {
		t.Errorf("expected the live VAT rate once, got %v after %d calls", resp.Result.VATRate, rates.calls)
	}
	if resp.Result.ID == "" || resp.CSV == "" || resp.Duration == "" {
		t.Errorf("expected ID, CSV and duration in response")
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", resp.Warnings)
	}
}

func TestHandleCalculateEnvelopeAndPinnedVAT(t *testing.T) {
	rates := &stubRates{rate: 0.18, fallback: 0.17}
	body := `{"deal": {"price": 1000000, "area": 50, "vatRate": 0.16,
		"buyers": [{"sharePct": 60}], "services": [{"label": "broker", "percent": 2}]}}`

	resp := decodeCalculate(t, post(t, newTestHandler(rates), "/api/calculate", body))

	if rates.calls != 0 {
		t.Errorf("a pinned VAT rate must not query the source, got %d calls", rates.calls)
	}
	// 20,000 * 1.16
	if resp.Result.ServiceTotal != 23200 {
		t.Errorf("service total = %v, expected 23200", resp.Result.ServiceTotal)
	}
	found := false
	for _, w := range resp.Warnings {
		if strings.Contains(w, "sum to 60.00%") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a share warning, got %v", resp.Warnings)
	}
}

func TestHandleCalculateVATFallback(t *testing.T) {
	rates := &stubRates{err: errors.New("unreachable"), fallback: 0.17}
	body := `{"price": 1000000, "buyers": [], "services": [{"label": "broker", "percent": 2}]}`

	resp := decodeCalculate(t, post(t, newTestHandler(rates), "/api/calculate", body))

	if resp.Result.VATRate != 0.17 {
		t.Errorf("VAT rate = %v, expected fallback 0.17", resp.Result.VATRate)
	}
	if resp.Result.ServiceTotal != 23400 {
		t.Errorf("service total = %v, expected 23400", resp.Result.ServiceTotal)
	}
}

func TestHandleCalculateDefaultServices(t *testing.T) {
	body := `{"price": 1000000, "useDefaultServices": true, "services": [{"label": "broker", "percent": 1}]}`

	resp := decodeCalculate(t, post(t, newTestHandler(nil), "/api/calculate", body))

	if len(resp.Result.ServiceBreakdown) != len(servicecost.DefaultServices()) {
		t.Fatalf("expected %d services, got %d", len(servicecost.DefaultServices()), len(resp.Result.ServiceBreakdown))
	}
	// 10,000 * 1.18
	if resp.Result.ServiceBreakdown[0].Cost != 11800 {
		t.Errorf("broker override cost = %v, expected 11800", resp.Result.ServiceBreakdown[0].Cost)
	}
}

func TestHandleCalculateErrors(t *testing.T) {
	handler := newTestHandler(nil)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{name: "Wrong method", method: http.MethodGet, status: http.StatusMethodNotAllowed},
		{name: "Empty body", method: http.MethodPost, body: "  ", status: http.StatusBadRequest},
		{name: "Malformed JSON", method: http.MethodPost, body: "{", status: http.StatusBadRequest},
		{name: "Wrong type", method: http.MethodPost, body: `{"price": "lots"}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/calculate", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if tt.status == http.StatusBadRequest && !strings.Contains(rr.Body.String(), `"error"`) {
				t.Errorf("expected JSON error body, got %s", rr.Body.String())
			}
		})
	}
}

func TestHandleCalculateTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 16, "", nil, "")
	rr := post(t, handler, "/api/calculate", firstHomeDeal)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
}

func TestHandleCalculateOverflowingTotal(t *testing.T) {
	body := `{"price": 1e308, "vatRate": 0, "services": [{"label": "broker", "percent": 100}]}`
	resp := decodeCalculate(t, post(t, newTestHandler(nil), "/api/calculate", body))

	if resp.Result.ServiceTotal != 1e308 {
		t.Errorf("service total = %v, expected 1e308", resp.Result.ServiceTotal)
	}
	if resp.Result.Total != 0 {
		t.Errorf("total = %v, expected an overflowing total to be reported as 0", resp.Result.Total)
	}
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	rr := httptest.NewRecorder()

	h.writeJSON(rr, http.StatusOK, map[string]float64{"total": math.Inf(1)})

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("expected a JSON error body, got %q: %v", rr.Body.String(), err)
	}
	if resp["error"] == "" {
		t.Errorf("expected an error message, got %v", resp)
	}
}

func TestHandleCalculateUpload(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_deal.yaml"))
	if err != nil {
		t.Fatalf("failed to read test deal: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "test_deal.yaml")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/calculate/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	newTestHandler(nil).ServeHTTP(rr, req)

	resp := decodeCalculate(t, rr)
	if resp.Result.TotalTax != 96000 || resp.Result.Total != 3188770 {
		t.Errorf("unexpected totals tax=%v total=%v", resp.Result.TotalTax, resp.Result.Total)
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("expected the unconfigured renovation warning, got %v", resp.Warnings)
	}
}

func TestHandleCalculateUploadMissingFile(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("other", "value"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/calculate/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	newTestHandler(nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleExport(t *testing.T) {
	handler := newTestHandler(&stubRates{rate: 0.18})

	tests := []struct {
		name        string
		query       string
		contentType string
		contains    string
		extension   string
	}{
		{name: "Default CSV", query: "", contentType: "text/csv", contains: "summary,total,,3126338", extension: ".csv"},
		{name: "CSV", query: "?format=csv", contentType: "text/csv", contains: "tax,Dana,first-home,45538", extension: ".csv"},
		{name: "HTML", query: "?format=HTML", contentType: "text/html", contains: "₪3,126,338", extension: ".html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(t, handler, "/api/calculate/export"+tt.query, firstHomeDeal)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if !strings.HasPrefix(rr.Header().Get("Content-Type"), tt.contentType) {
				t.Errorf("unexpected content type %s", rr.Header().Get("Content-Type"))
			}
			disposition := rr.Header().Get("Content-Disposition")
			if !strings.HasPrefix(disposition, `attachment; filename="deal-`) || !strings.HasSuffix(disposition, tt.extension+`"`) {
				t.Errorf("unexpected content disposition %s", disposition)
			}
			if !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("export missing %q", tt.contains)
			}
		})
	}

	rr := post(t, handler, "/api/calculate/export?format=pdf", firstHomeDeal)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unsupported format, got %d", rr.Code)
	}
}

func TestHandleMortgage(t *testing.T) {
	handler := newTestHandler(nil)

	body := `{"propertyValue": 300000, "principal": 120000, "annualInterestRate": 0, "termMonths": 12, "startDate": "2026-11"}`
	rr := post(t, handler, "/api/mortgage", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var summary mortgage.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.MonthlyPayment != 10000 || len(summary.Schedule) != 12 {
		t.Errorf("unexpected summary payment=%v months=%d", summary.MonthlyPayment, len(summary.Schedule))
	}
	if summary.LoanToValue != 40 {
		t.Errorf("loan to value = %v, expected 40", summary.LoanToValue)
	}
	if summary.Schedule[0].Month != "2026-11" || summary.Schedule[11].Month != "2027-10" {
		t.Errorf("unexpected schedule months %s..%s", summary.Schedule[0].Month, summary.Schedule[11].Month)
	}

	invalidTerms := []struct {
		name string
		body string
	}{
		{name: "Zero", body: `{"principal": 100000, "termMonths": 0}`},
		{name: "Beyond limit", body: `{"principal": 100000, "termMonths": 601}`},
		{name: "Huge", body: `{"principal": 800000, "annualInterestRate": 4, "termMonths": 1125899906842624}`},
	}
	for _, tt := range invalidTerms {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(t, handler, "/api/mortgage", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400 for invalid term, got %d", rr.Code)
			}
		})
	}
}

func TestHandleVAT(t *testing.T) {
	tests := []struct {
		name  string
		rates *stubRates
		want  float64
	}{
		{name: "Live", rates: &stubRates{rate: 0.17, fallback: 0.18}, want: 0.17},
		{name: "Fallback", rates: &stubRates{err: vat.ErrNoSource, fallback: 0.18}, want: 0.18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, newTestHandler(tt.rates), "/api/vat")
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rr.Code)
			}
			var resp vat.Response
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if !resp.Success || resp.Data == nil || resp.Data.Rate != tt.want {
				t.Errorf("unexpected VAT response %+v", resp)
			}
		})
	}
}

func TestHandleTracks(t *testing.T) {
	rr := get(t, newTestHandler(nil), "/api/tracks")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var tables []trackTable
	if err := json.Unmarshal(rr.Body.Bytes(), &tables); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(tables) != len(purchasetax.Tracks()) {
		t.Fatalf("expected %d tracks, got %d", len(purchasetax.Tracks()), len(tables))
	}
	last := tables[len(tables)-1]
	if last.Track != purchasetax.TrackLand || len(last.Brackets) != 1 || last.Brackets[0].Rate != 0.06 || last.Brackets[0].UpTo != nil {
		t.Errorf("unexpected land table %+v", last)
	}
}

func TestHandleDefaultServices(t *testing.T) {
	rr := get(t, newTestHandler(nil), "/api/defaults/services")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var services []servicecost.ServiceInput
	if err := json.Unmarshal(rr.Body.Bytes(), &services); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(services) != len(servicecost.DefaultServices()) || services[0].Label != servicecost.LabelBroker {
		t.Errorf("unexpected default services %+v", services)
	}
}

func TestHandleVersion(t *testing.T) {
	rr := get(t, newTestHandler(nil), "/api/version")
	if !strings.Contains(rr.Body.String(), `"version":"dev"`) {
		t.Errorf("expected dev version, got %s", rr.Body.String())
	}

	handler := NewHandler(zap.NewNop(), 0, " 1.2.3 ", nil, "")
	rr = get(t, handler, "/api/version")
	if !strings.Contains(rr.Body.String(), `"version":"1.2.3"`) {
		t.Errorf("expected trimmed version, got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/version", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, "", &stubRates{err: errors.New("down"), fallback: 0.18}, "/internal/metrics")

	decodeCalculate(t, post(t, handler, "/api/calculate", firstHomeDeal))
	if rr := get(t, handler, "/health"); rr.Code != http.StatusOK {
		t.Fatalf("expected healthy status, got %d", rr.Code)
	}

	rr := get(t, handler, "/internal/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`deal_calculator_http_requests_total{method="POST",route="/api/calculate",status="200"} 1`,
		`deal_calculator_calculations_total{format="json"} 1`,
		`deal_calculator_vat_fallbacks_total 1`,
		`deal_calculator_http_request_duration_seconds_count{route="/health"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
