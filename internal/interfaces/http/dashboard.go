package http

import (
	"context"
	"encoding/json"
	"net/http"

	"cloud.google.com/go/civil"

	"finch/internal/domain/dashboard"
	"finch/internal/shared/logging"
	"finch/internal/shared/middleware"
)

type DashboardService interface {
	Summarize(ctx context.Context, userID int64, asOf civil.Date) (*dashboard.Summary, error)
}

type DashboardHandler struct {
	dashboard DashboardService
}

func NewDashboardHandler(dashboard DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// HandleDashboard returns the caller's aggregated dashboard. Optional
// sections that failed are listed under "degraded" rather than failing
// the whole response.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	asOf, err := parseAsOf(r.URL.Query().Get("asOf"))
	if err != nil {
		http.Error(w, "Invalid asOf format (use YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	summary, err := h.dashboard.Summarize(r.Context(), userID, asOf)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("failed to build dashboard")
		http.Error(w, "Failed to build dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
