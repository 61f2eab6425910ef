package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"finch/internal/domain/budget"
	"finch/internal/shared/logging"
	"finch/internal/shared/middleware"
)

type BudgetService interface {
	Create(ctx context.Context, b *budget.Budget) (*budget.Budget, error)
	GetByID(ctx context.Context, id string) (*budget.Budget, error)
	ListByUser(ctx context.Context, userID int64) ([]*budget.Budget, error)
	Update(ctx context.Context, b *budget.Budget) (*budget.Budget, error)
	Delete(ctx context.Context, id string) error
	Status(ctx context.Context, id string, asOf civil.Date, accountIDs []string) (*budget.Status, error)
	StatusList(ctx context.Context, userID int64, asOf civil.Date, accountIDs []string) ([]*budget.Status, error)
}

type BudgetHandler struct {
	budgets  BudgetService
	accounts AccountResolver
}

func NewBudgetHandler(budgets BudgetService, accounts AccountResolver) *BudgetHandler {
	return &BudgetHandler{
		budgets:  budgets,
		accounts: accounts,
	}
}

type BudgetRequest struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	BudgetLimit    float64 `json:"budgetLimit"`
	PeriodType     string  `json:"periodType"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	AlertThreshold float64 `json:"alertThreshold"`
	AutoRollover   bool    `json:"autoRollover"`
	IsActive       *bool   `json:"isActive,omitempty"`
}

func (req *BudgetRequest) toBudget(userID int64) (*budget.Budget, error) {
	startDate, err := civil.ParseDate(req.StartDate)
	if err != nil {
		return nil, &budget.ValidationError{Field: "startDate", Msg: "must be YYYY-MM-DD"}
	}
	endDate, err := civil.ParseDate(req.EndDate)
	if err != nil {
		return nil, &budget.ValidationError{Field: "endDate", Msg: "must be YYYY-MM-DD"}
	}

	b := &budget.Budget{
		UserID:         userID,
		Name:           req.Name,
		Category:       req.Category,
		BudgetLimit:    req.BudgetLimit,
		PeriodType:     budget.PeriodType(req.PeriodType),
		StartDate:      startDate,
		EndDate:        endDate,
		AlertThreshold: req.AlertThreshold,
		AutoRollover:   req.AutoRollover,
		IsActive:       true,
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	return b, nil
}

// HandleBudgets serves the budget collection: POST creates, GET lists.
func (h *BudgetHandler) HandleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createBudget(w, r)
	case http.MethodGet:
		h.listBudgets(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BudgetHandler) createBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req BudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	b, err := req.toBudget(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.budgets.Create(r.Context(), b)
	if err != nil {
		if budget.IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logging.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("failed to create budget")
		http.Error(w, "Failed to create budget", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *BudgetHandler) listBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	budgets, err := h.budgets.ListByUser(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("failed to list budgets")
		http.Error(w, "Failed to list budgets", http.StatusInternalServerError)
		return
	}
	if budgets == nil {
		budgets = []*budget.Budget{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(budgets)
}

// HandleBudgetStatuses evaluates every active budget for the caller.
func (h *BudgetHandler) HandleBudgetStatuses(w http.ResponseWriter, r *http.Request) {
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

	accountIDs, err := h.accounts.AccountIDs(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("failed to resolve accounts")
		http.Error(w, "Failed to evaluate budgets", http.StatusInternalServerError)
		return
	}

	statuses, err := h.budgets.StatusList(r.Context(), userID, asOf, accountIDs)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("failed to evaluate budgets")
		http.Error(w, "Failed to evaluate budgets", http.StatusInternalServerError)
		return
	}
	if statuses == nil {
		statuses = []*budget.Status{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statuses)
}

// HandleBudget serves a single budget: GET, PUT, DELETE, and the
// GET .../status evaluation endpoint.
func (h *BudgetHandler) HandleBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	budgetID := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
	wantStatus := strings.HasSuffix(budgetID, "/status")
	budgetID = strings.TrimSuffix(budgetID, "/status")
	if budgetID == "" {
		http.Error(w, "Budget ID is required", http.StatusBadRequest)
		return
	}

	// Ownership check up front; every verb below needs it.
	existing, err := h.budgets.GetByID(r.Context(), budgetID)
	if err != nil {
		if err == budget.ErrNotFound {
			http.Error(w, "Budget not found", http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error().Err(err).Str("budget_id", budgetID).Msg("failed to get budget")
		http.Error(w, "Failed to get budget", http.StatusInternalServerError)
		return
	}
	if existing.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if wantStatus {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.budgetStatus(w, r, budgetID, userID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(existing)
	case http.MethodPut:
		h.updateBudget(w, r, existing)
	case http.MethodDelete:
		h.deleteBudget(w, r, budgetID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BudgetHandler) budgetStatus(w http.ResponseWriter, r *http.Request, budgetID string, userID int64) {
	asOf, err := parseAsOf(r.URL.Query().Get("asOf"))
	if err != nil {
		http.Error(w, "Invalid asOf format (use YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	accountIDs, err := h.accounts.AccountIDs(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("failed to resolve accounts")
		http.Error(w, "Failed to evaluate budget", http.StatusInternalServerError)
		return
	}

	status, err := h.budgets.Status(r.Context(), budgetID, asOf, accountIDs)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Str("budget_id", budgetID).Msg("failed to evaluate budget")
		http.Error(w, "Failed to evaluate budget", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (h *BudgetHandler) updateBudget(w http.ResponseWriter, r *http.Request, existing *budget.Budget) {
	var req BudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	b, err := req.toBudget(existing.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.ID = existing.ID

	updated, err := h.budgets.Update(r.Context(), b)
	if err != nil {
		if budget.IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err == budget.ErrNotFound {
			http.Error(w, "Budget not found", http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error().Err(err).Str("budget_id", existing.ID).Msg("failed to update budget")
		http.Error(w, "Failed to update budget", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

func (h *BudgetHandler) deleteBudget(w http.ResponseWriter, r *http.Request, budgetID string) {
	if err := h.budgets.Delete(r.Context(), budgetID); err != nil {
		if err == budget.ErrNotFound {
			http.Error(w, "Budget not found", http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error().Err(err).Str("budget_id", budgetID).Msg("failed to delete budget")
		http.Error(w, "Failed to delete budget", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseAsOf resolves the evaluation date, defaulting to today.
func parseAsOf(raw string) (civil.Date, error) {
	if raw == "" {
		return civil.DateOf(time.Now().UTC()), nil
	}
	return civil.ParseDate(raw)
}
