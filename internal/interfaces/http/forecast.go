package http

import (
	"encoding/json"
	"net/http"

	"finch/internal/domain/forecast"
	"finch/internal/shared/logging"
	"finch/internal/shared/middleware"
)

type ForecastHandler struct {
	client forecast.Client // nil when the forecasting service is not configured
}

func NewForecastHandler(client forecast.Client) *ForecastHandler {
	return &ForecastHandler{client: client}
}

// HandleForecast proxies the external forecasting service.
func (h *ForecastHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if h.client == nil {
		http.Error(w, "Forecasting is not configured", http.StatusServiceUnavailable)
		return
	}

	points, err := h.client.Forecast(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("forecast fetch failed")
		http.Error(w, "Forecast unavailable", http.StatusBadGateway)
		return
	}
	if points == nil {
		points = []forecast.Point{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(points)
}
