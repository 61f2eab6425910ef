package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"finch/internal/domain/account"
	"finch/internal/domain/ledger"
	"finch/internal/shared/logging"
	"finch/internal/shared/middleware"
)

// External page cap. Internal aggregation reads are unbounded; everything
// that leaves over HTTP is not.
const maxPageSize = 1000

type LedgerService interface {
	Query(ctx context.Context, params ledger.QueryParams) ([]*ledger.Transaction, error)
	GetByID(ctx context.Context, id string) (*ledger.Transaction, error)
	SetCustomCategory(ctx context.Context, id string, custom *string) (*ledger.Transaction, error)
}

type AccountResolver interface {
	GetAccount(ctx context.Context, accountID string, userID int64) (*account.Account, error)
	AccountIDs(ctx context.Context, userID int64) ([]string, error)
}

type TransactionHandler struct {
	ledger   LedgerService
	accounts AccountResolver
}

func NewTransactionHandler(ledger LedgerService, accounts AccountResolver) *TransactionHandler {
	return &TransactionHandler{
		ledger:   ledger,
		accounts: accounts,
	}
}

type SetCategoryRequest struct {
	Category *string `json:"category"` // null clears the override
}

// HandleListTransactions returns the caller's transactions, optionally
// filtered by account, category, and date range.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	logger := logging.FromContext(r.Context())

	params := ledger.QueryParams{
		Category: r.URL.Query().Get("category"),
	}

	if accountID := r.URL.Query().Get("accountId"); accountID != "" {
		// Verify account ownership
		if _, err := h.accounts.GetAccount(r.Context(), accountID, userID); err != nil {
			writeAccountError(w, err)
			return
		}
		params.AccountID = accountID
	} else {
		accountIDs, err := h.accounts.AccountIDs(r.Context(), userID)
		if err != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("failed to resolve accounts")
			http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
			return
		}
		if len(accountIDs) == 0 {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]*ledger.Transaction{})
			return
		}
		params.AccountIDs = accountIDs
	}

	if startDate := r.URL.Query().Get("startDate"); startDate != "" {
		d, err := civil.ParseDate(startDate)
		if err != nil {
			http.Error(w, "Invalid startDate format (use YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		params.StartDate = d
	}

	if endDate := r.URL.Query().Get("endDate"); endDate != "" {
		d, err := civil.ParseDate(endDate)
		if err != nil {
			http.Error(w, "Invalid endDate format (use YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		params.EndDate = d
	}

	// Parse pagination parameters
	params.Limit = 50

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			params.Limit = parsedLimit
		}
	}
	if params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			params.Offset = parsedOffset
		}
	}

	transactions, err := h.ledger.Query(r.Context(), params)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list transactions")
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []*ledger.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

// HandleGetTransaction returns a specific transaction
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	transactionID := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if transactionID == "" {
		http.Error(w, "Transaction ID is required", http.StatusBadRequest)
		return
	}

	transaction, err := h.ledger.GetByID(r.Context(), transactionID)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Str("transaction_id", transactionID).Msg("failed to get transaction")
		http.Error(w, "Failed to get transaction", http.StatusInternalServerError)
		return
	}
	if transaction == nil {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}

	// Verify ownership through account
	if _, err := h.accounts.GetAccount(r.Context(), transaction.AccountID, userID); err != nil {
		writeAccountError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transaction)
}

// HandleSetCategory sets or clears the custom category override on a
// transaction. The override survives resyncs.
func (h *TransactionHandler) HandleSetCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	transactionID := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	transactionID = strings.TrimSuffix(transactionID, "/category")
	if transactionID == "" {
		http.Error(w, "Transaction ID is required", http.StatusBadRequest)
		return
	}

	var req SetCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) == "" {
		http.Error(w, "category must be a non-empty string or null", http.StatusBadRequest)
		return
	}

	transaction, err := h.ledger.GetByID(r.Context(), transactionID)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Str("transaction_id", transactionID).Msg("failed to get transaction")
		http.Error(w, "Failed to get transaction", http.StatusInternalServerError)
		return
	}
	if transaction == nil {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}

	// Verify ownership through account
	if _, err := h.accounts.GetAccount(r.Context(), transaction.AccountID, userID); err != nil {
		writeAccountError(w, err)
		return
	}

	updated, err := h.ledger.SetCustomCategory(r.Context(), transactionID, req.Category)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Str("transaction_id", transactionID).Msg("failed to set category")
		http.Error(w, "Failed to set category", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

func writeAccountError(w http.ResponseWriter, err error) {
	switch err {
	case account.ErrAccountNotFound:
		http.Error(w, "Account not found", http.StatusNotFound)
	case account.ErrForbidden:
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "Failed to resolve account", http.StatusInternalServerError)
	}
}
