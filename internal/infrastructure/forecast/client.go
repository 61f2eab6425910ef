package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"finch/internal/domain/forecast"
)

const (
	defaultTimeout = 30 * time.Second
	forecastPath   = "/api/v1/forecast"
)

// Client calls the external spending-forecast service. Forecasting is a
// passthrough concern: points are surfaced exactly as the service produced
// them, and any failure degrades to an empty forecast at the call site.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

var _ forecast.Client = (*Client)(nil)

// NewClient creates a forecast service client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// forecastResponse represents the API response for forecast data
type forecastResponse struct {
	Success bool             `json:"success"`
	Data    []forecast.Point `json:"data"`
	Count   int              `json:"count"`
}

// errorResponse represents an error response from the API
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Forecast fetches per-category spending projections for a user.
func (c *Client) Forecast(ctx context.Context, userID int64) ([]forecast.Point, error) {
	url := fmt.Sprintf("%s%s?userId=%d", c.baseURL, forecastPath, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, fmt.Errorf("forecast request failed with status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("forecast error (status %d): %s - %s", resp.StatusCode, errResp.Error, errResp.Message)
	}

	var fcResp forecastResponse
	if err := json.Unmarshal(body, &fcResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !fcResp.Success {
		return nil, fmt.Errorf("forecast service returned success=false")
	}

	return fcResp.Data, nil
}
