package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/iwvelando/deal-calculator/internal/config"
	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/internal/vat"
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/mortgage"
	"github.com/iwvelando/deal-calculator/pkg/output"
	"github.com/iwvelando/deal-calculator/pkg/purchasetax"
	"github.com/iwvelando/deal-calculator/pkg/servicecost"
	"go.uber.org/zap"
)

// RateSource supplies the live VAT rate and the rate to use when it is
// unavailable. *vat.Client satisfies it.
type RateSource interface {
	Fetch(ctx context.Context) (vat.Rate, error)
	Fallback() float64
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	rates         RateSource
	metrics       *metrics
	schedules     *mortgage.ScheduleGenerator
}

// NewHandler constructs the HTTP handler that serves the calculation API.
// A nil rates source always uses the default VAT rate.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, rates RateSource, metricsPath string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	if rates == nil {
		rates = vat.NewClient(logger, "", 0, constants.DefaultVATRate)
	}

	if metricsPath == "" {
		metricsPath = constants.DefaultMetricsPath
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		rates:         rates,
		metrics:       newMetrics(),
		schedules:     mortgage.NewScheduleGenerator(logger),
	}

	mux := http.NewServeMux()
	routes := map[string]http.HandlerFunc{
		"/api/calculate":         h.handleCalculate,
		"/api/calculate/upload":  h.handleCalculateUpload,
		"/api/calculate/export":  h.handleExport,
		"/api/mortgage":          h.handleMortgage,
		"/api/vat":               h.handleVAT,
		"/api/tracks":            h.handleTracks,
		"/api/defaults/services": h.handleDefaultServices,
		"/api/version":           h.handleVersion,
		"/health":                h.handleHealth,
	}
	for route, fn := range routes {
		mux.HandleFunc(route, h.metrics.instrument(route, fn))
	}
	mux.Handle(metricsPath, h.metrics.handler())

	return mux
}

type calculateResponse struct {
	Result   deal.CalculationResult `json:"result"`
	CSV      string                 `json:"csv"`
	Warnings []string               `json:"warnings,omitempty"`
	Duration string                 `json:"duration"`
}

type trackTable struct {
	Track    purchasetax.Track `json:"track"`
	Brackets purchasetax.Table `json:"brackets"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	dealConfig, ok := h.decodeDeal(w, r, "server.handleCalculate")
	if !ok {
		return
	}
	h.runCalculation(r.Context(), w, dealConfig, start, "server.handleCalculate")
}

func (h *handler) handleCalculateUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), "server.handleCalculateUpload")
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), "server.handleCalculateUpload")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing deal file", "server.handleCalculateUpload")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.handleCalculateUpload"),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read deal file: %v", err), "server.handleCalculateUpload")
		return
	}

	cfg, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), "server.handleCalculateUpload")
		return
	}

	h.runCalculation(r.Context(), w, cfg.Deal, start, "server.handleCalculateUpload")
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	exportFormat := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if exportFormat == "" {
		exportFormat = constants.OutputFormatCSV
	}
	if exportFormat != constants.OutputFormatCSV && exportFormat != constants.OutputFormatHTML {
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported export format %q, expected csv or html", exportFormat), "server.handleExport")
		return
	}

	dealConfig, ok := h.decodeDeal(w, r, "server.handleExport")
	if !ok {
		return
	}
	result := deal.Calculate(h.logger, dealConfig.ToDeal(h.resolveVAT(r.Context(), dealConfig)))
	h.metrics.calculations.WithLabelValues(exportFormat).Inc()

	var (
		body        bytes.Buffer
		contentType string
		err         error
	)
	switch exportFormat {
	case constants.OutputFormatHTML:
		contentType = "text/html; charset=utf-8"
		err = output.HTMLFormat(&body, result)
	default:
		contentType = "text/csv; charset=utf-8"
		err = output.CsvFormat(&body, result)
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render export: %v", err), "server.handleExport")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="deal-%s.%s"`, result.ID, exportFormat))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body.Bytes()); err != nil {
		h.logger.Error("failed to write export", zap.String("op", "server.handleExport"), zap.Error(err))
	}
}

func (h *handler) handleMortgage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	data, ok := h.readBody(w, r, "server.handleMortgage")
	if !ok {
		return
	}

	var loan mortgage.Loan
	if err := json.Unmarshal(data, &loan); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode mortgage: %v", err), "server.handleMortgage")
		return
	}
	if err := loan.Validate(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), "server.handleMortgage")
		return
	}

	summary, err := h.schedules.Summarize(loan)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), "server.handleMortgage")
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handleVAT(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	rate, err := h.rates.Fetch(r.Context())
	if err != nil {
		h.recordFallback(err, "server.handleVAT")
		rate = vat.Rate{Rate: h.rates.Fallback()}
	}
	h.writeJSON(w, http.StatusOK, vat.Response{Success: true, Data: &rate})
}

func (h *handler) handleTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	tracks := purchasetax.Tracks()
	tables := make([]trackTable, 0, len(tracks))
	for _, track := range tracks {
		tables = append(tables, trackTable{Track: track, Brackets: purchasetax.TableFor(track)})
	}
	h.writeJSON(w, http.StatusOK, tables)
}

func (h *handler) handleDefaultServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, servicecost.DefaultServices())
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *handler) runCalculation(ctx context.Context, w http.ResponseWriter, dealConfig config.DealConfig, start time.Time, op string) {
	warnings := (&config.Configuration{Deal: dealConfig}).ValidateConfiguration()
	result := deal.Calculate(h.logger, dealConfig.ToDeal(h.resolveVAT(ctx, dealConfig)))
	h.metrics.calculations.WithLabelValues(constants.OutputFormatJSON).Inc()

	elapsed := time.Since(start)
	response := calculateResponse{
		Result:   result,
		CSV:      output.CsvString(result),
		Warnings: warnings,
		Duration: elapsed.String(),
	}

	h.logger.Info("deal computed",
		zap.String("op", op),
		zap.String("id", result.ID),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

// resolveVAT returns the deal's pinned VAT rate, the live rate, or the
// fallback, in that order.
func (h *handler) resolveVAT(ctx context.Context, dealConfig config.DealConfig) float64 {
	if dealConfig.VATRate != nil {
		return *dealConfig.VATRate
	}
	rate, err := h.rates.Fetch(ctx)
	if err != nil {
		h.recordFallback(err, "server.resolveVAT")
		return h.rates.Fallback()
	}
	return rate.Rate
}

func (h *handler) recordFallback(err error, op string) {
	h.metrics.vatFallbacks.Inc()
	if errors.Is(err, vat.ErrNoSource) {
		return
	}
	h.logger.Warn("failed to resolve VAT rate, using fallback",
		zap.String("op", op),
		zap.Float64("rate", h.rates.Fallback()),
		zap.Error(err),
	)
}

func (h *handler) decodeDeal(w http.ResponseWriter, r *http.Request, op string) (config.DealConfig, bool) {
	var dealConfig config.DealConfig

	data, ok := h.readBody(w, r, op)
	if !ok {
		return dealConfig, false
	}

	payload := data
	var envelope struct {
		Deal *json.RawMessage `json:"deal"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Deal != nil {
		payload = *envelope.Deal
	}

	if err := json.Unmarshal(payload, &dealConfig); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode deal: %v", err), op)
		return dealConfig, false
	}
	return dealConfig, true
}

func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return nil, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "empty request body", op)
		return nil, false
	}
	return data, true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes the payload before writing the status. A payload that
// cannot be encoded is answered with a 500.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Int("status", status),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
