package http

import (
	"context"
	"encoding/json"
	"net/http"

	"cloud.google.com/go/civil"

	"finch/internal/domain/budget"
	"finch/internal/domain/insight"
	"finch/internal/shared/logging"
	"finch/internal/shared/middleware"
)

type InsightGenerator interface {
	Generate(ctx context.Context, accountIDs []string, asOf civil.Date, statuses []*budget.Status) ([]insight.Insight, error)
}

type InsightHandler struct {
	insights InsightGenerator
	budgets  BudgetService
	accounts AccountResolver
}

func NewInsightHandler(insights InsightGenerator, budgets BudgetService, accounts AccountResolver) *InsightHandler {
	return &InsightHandler{
		insights: insights,
		budgets:  budgets,
		accounts: accounts,
	}
}

// HandleInsights generates spending insights for the caller. Budget alerts
// ride along when budget evaluation succeeds; its failure downgrades the
// result instead of failing the request.
func (h *InsightHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
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

	logger := logging.FromContext(r.Context())

	accountIDs, err := h.accounts.AccountIDs(r.Context(), userID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("failed to resolve accounts")
		http.Error(w, "Failed to generate insights", http.StatusInternalServerError)
		return
	}
	if len(accountIDs) == 0 {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]insight.Insight{})
		return
	}

	statuses, err := h.budgets.StatusList(r.Context(), userID, asOf, accountIDs)
	if err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("budget evaluation unavailable for insights")
		statuses = nil
	}

	insights, err := h.insights.Generate(r.Context(), accountIDs, asOf, statuses)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("failed to generate insights")
		http.Error(w, "Failed to generate insights", http.StatusInternalServerError)
		return
	}
	if insights == nil {
		insights = []insight.Insight{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(insights)
}
