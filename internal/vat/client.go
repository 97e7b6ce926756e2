// Package vat fetches the current VAT rate from the backend's rate endpoint.
package vat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"go.uber.org/zap"
)

// ErrNoSource is returned by Fetch when no source URL is configured.
var ErrNoSource = errors.New("no VAT source URL configured")

// Rate is the payload carried inside a successful VAT response.
type Rate struct {
	Rate      float64 `json:"rate"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// Response mirrors the backend's {success, data} envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    *Rate  `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client resolves the VAT rate, falling back to a fixed rate on any failure.
type Client struct {
	logger     *zap.Logger
	httpClient *http.Client
	sourceURL  string
	fallback   float64
}

// NewClient builds a Client. A non-positive timeout uses the default; a
// fallback outside [0, 1) uses the default VAT rate.
func NewClient(logger *zap.Logger, sourceURL string, timeout time.Duration, fallback float64) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = time.Duration(constants.DefaultVATTimeoutSeconds) * time.Second
	}
	if !ValidRate(fallback) {
		fallback = constants.DefaultVATRate
	}
	return &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		sourceURL:  strings.TrimSpace(sourceURL),
		fallback:   fallback,
	}
}

// Fallback returns the rate used when the source cannot be reached.
func (c *Client) Fallback() float64 {
	return c.fallback
}

// ValidRate reports whether r is a usable VAT fraction.
func ValidRate(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r >= 0 && r < 1
}

// Fetch queries the source once. It returns an error on transport failures,
// non-2xx statuses, unsuccessful envelopes and invalid rates.
func (c *Client) Fetch(ctx context.Context) (Rate, error) {
	if c.sourceURL == "" {
		return Rate{}, ErrNoSource
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sourceURL, nil)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to build VAT request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to fetch VAT rate: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close VAT response body",
				zap.String("op", "vat.Fetch"),
				zap.Error(closeErr),
			)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Rate{}, fmt.Errorf("VAT source returned status %d", resp.StatusCode)
	}

	var body Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Rate{}, fmt.Errorf("failed to decode VAT response: %w", err)
	}
	if !body.Success || body.Data == nil {
		return Rate{}, fmt.Errorf("VAT source reported failure: %s", body.Error)
	}
	if !ValidRate(body.Data.Rate) {
		return Rate{}, fmt.Errorf("VAT source returned invalid rate %v", body.Data.Rate)
	}
	return *body.Data, nil
}

// Current returns the live VAT rate, or the fallback when Fetch fails.
func (c *Client) Current(ctx context.Context) float64 {
	rate, err := c.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSource) {
			c.logger.Debug("no VAT source configured, using fallback",
				zap.String("op", "vat.Current"),
				zap.Float64("rate", c.fallback),
			)
		} else {
			c.logger.Warn("failed to resolve VAT rate, using fallback",
				zap.String("op", "vat.Current"),
				zap.String("source", c.sourceURL),
				zap.Float64("rate", c.fallback),
				zap.Error(err),
			)
		}
		return c.fallback
	}

	c.logger.Debug("resolved VAT rate",
		zap.String("op", "vat.Current"),
		zap.Float64("rate", rate.Rate),
		zap.String("updatedAt", rate.UpdatedAt),
	)
	return rate.Rate
}
