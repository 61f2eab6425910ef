package http

import (
	"context"
	"encoding/json"
	"net/http"

	"finch/internal/domain/sync"
	"finch/internal/shared/logging"
	"finch/internal/shared/middleware"
)

type SyncService interface {
	SyncUser(ctx context.Context, userID int64) (*sync.Result, error)
}

type SyncHandler struct {
	sync SyncService
}

func NewSyncHandler(sync SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// HandleSync pulls fresh data from the bank feed for every connection the
// caller owns. Per-item failures land in the result's errors list; the
// request itself only fails when nothing could be synced.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.sync.SyncUser(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("sync failed")
		http.Error(w, "Sync failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
