package forecast

import "context"

// Point is one category's projected spend for the next period, as produced
// by the external forecasting service. Values pass through untouched.
type Point struct {
	Category        string  `json:"category"`
	ForecastAmount  float64 `json:"forecastAmount"`
	ConfidenceLower float64 `json:"confidenceLower"`
	ConfidenceUpper float64 `json:"confidenceUpper"`
	Trend           string  `json:"trend"` // increasing, decreasing, stable
}

// Client fetches forecasts from the external service. Implementations must
// treat the service as optional: callers degrade to an empty forecast.
type Client interface {
	Forecast(ctx context.Context, userID int64) ([]Point, error)
}
