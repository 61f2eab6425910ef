package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"finch/internal/domain/banklink"
	"finch/internal/shared/logging"
	"finch/internal/shared/middleware"
)

type BankLinkService interface {
	Link(ctx context.Context, userID int64, publicToken, institutionName string) (*banklink.Item, error)
	ListByUser(ctx context.Context, userID int64) ([]*banklink.Item, error)
	Unlink(ctx context.Context, itemID string, userID int64) error
}

type BankLinkHandler struct {
	links BankLinkService
}

func NewBankLinkHandler(links BankLinkService) *BankLinkHandler {
	return &BankLinkHandler{links: links}
}

type LinkRequest struct {
	PublicToken     string `json:"publicToken"`
	InstitutionName string `json:"institutionName"`
}

// HandleBankLinks serves the connection collection: POST links a new bank,
// GET lists existing connections.
func (h *BankLinkHandler) HandleBankLinks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.link(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BankLinkHandler) link(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.links.Link(r.Context(), userID, req.PublicToken, req.InstitutionName)
	if err != nil {
		switch {
		case errors.Is(err, banklink.ErrTokenRequired):
			http.Error(w, "publicToken is required", http.StatusBadRequest)
		case errors.Is(err, banklink.ErrExchangeRejected):
			http.Error(w, "Token exchange rejected", http.StatusBadGateway)
		default:
			logging.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("failed to link bank")
			http.Error(w, "Failed to link bank", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

func (h *BankLinkHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.links.ListByUser(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("failed to list bank links")
		http.Error(w, "Failed to list bank links", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*banklink.Item{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// HandleUnlink removes a bank connection and cascades to its accounts and
// their ledger history.
func (h *BankLinkHandler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID := strings.TrimPrefix(r.URL.Path, "/api/bank-links/")
	if itemID == "" {
		http.Error(w, "Bank link ID is required", http.StatusBadRequest)
		return
	}

	if err := h.links.Unlink(r.Context(), itemID, userID); err != nil {
		switch {
		case errors.Is(err, banklink.ErrItemNotFound):
			http.Error(w, "Bank link not found", http.StatusNotFound)
		case errors.Is(err, banklink.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			logging.FromContext(r.Context()).Error().Err(err).Str("item_id", itemID).Msg("failed to unlink bank")
			http.Error(w, "Failed to unlink bank", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
