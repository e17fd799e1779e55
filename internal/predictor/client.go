// Package predictor talks to the model service that hosts the trained search,
// pricing and booking models.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/boardinghub/internal/apperr"
)

const defaultTimeout = 10 * time.Second

// Client calls the model service. Every failure it returns is a predictor error.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client for the model service at baseURL.
// A non-positive timeout falls back to 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// do sends body (if any) as JSON and decodes the JSON response into dst.
func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	rawURL := c.baseURL + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request for %s: %w", rawURL, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s returned status %d", method, rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}

	return nil
}

// PredictFilters infers location, price tier and amenity confidences for a query.
func (c *Client) PredictFilters(ctx context.Context, query string) (*FilterPrediction, error) {
	var out FilterPrediction
	if err := c.do(ctx, http.MethodPost, "/filters", map[string]string{"query": query}, &out); err != nil {
		return nil, apperr.Predictor(fmt.Errorf("filter prediction: %w", err))
	}
	return &out, nil
}

// PredictBasePrice returns the unadjusted monthly prices for a listing.
func (c *Client) PredictBasePrice(ctx context.Context, in BasePriceRequest) (*BasePrice, error) {
	var out BasePrice
	if err := c.do(ctx, http.MethodPost, "/price", in, &out); err != nil {
		return nil, apperr.Predictor(fmt.Errorf("base price prediction: %w", err))
	}
	return &out, nil
}

// RecommendRange returns a recommended price band for a distance and amenity score.
func (c *Client) RecommendRange(ctx context.Context, distance, amenityScore float64) (*PriceRange, error) {
	body := map[string]float64{"distance": distance, "amenity_score": amenityScore}

	var out PriceRange
	if err := c.do(ctx, http.MethodPost, "/range", body, &out); err != nil {
		return nil, apperr.Predictor(fmt.Errorf("price range recommendation: %w", err))
	}
	if out.Min > out.Max {
		return nil, apperr.Predictor(fmt.Errorf("price range recommendation: min %.2f above max %.2f", out.Min, out.Max))
	}
	return &out, nil
}

type seasonalResponse struct {
	Month  int     `json:"month"`
	Factor float64 `json:"factor"`
}

// SeasonalFactor returns the demand multiplier for a calendar month.
func (c *Client) SeasonalFactor(ctx context.Context, month time.Month) (float64, error) {
	path := "/seasonal-factor?month=" + url.QueryEscape(strconv.Itoa(int(month)))

	var out seasonalResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return 0, apperr.Predictor(fmt.Errorf("seasonal factor for month %d: %w", month, err))
	}
	return out.Factor, nil
}

type bookingsResponse struct {
	Predictions []float64 `json:"predictions"`
}

// PredictBookings returns one booking estimate per feature row, in row order.
func (c *Client) PredictBookings(ctx context.Context, rows []BookingFeatures) ([]float64, error) {
	body := map[string][]BookingFeatures{"rows": rows}

	var out bookingsResponse
	if err := c.do(ctx, http.MethodPost, "/bookings", body, &out); err != nil {
		return nil, apperr.Predictor(fmt.Errorf("booking prediction: %w", err))
	}
	if len(out.Predictions) != len(rows) {
		return nil, apperr.Predictor(fmt.Errorf("booking prediction: got %d predictions for %d rows", len(out.Predictions), len(rows)))
	}
	return out.Predictions, nil
}

// Ping checks that the model service answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return fmt.Errorf("pinging model service: %w", err)
	}
	return nil
}
