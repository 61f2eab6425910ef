package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/civil"

	"finch/internal/domain/dashboard"
	"finch/internal/domain/sync"
)

type MockDashboard struct {
	SummarizeFunc func(ctx context.Context, userID int64, asOf civil.Date) (*dashboard.Summary, error)
}

func (m *MockDashboard) Summarize(ctx context.Context, userID int64, asOf civil.Date) (*dashboard.Summary, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, userID, asOf)
	}
	return &dashboard.Summary{}, nil
}

func TestHandleDashboard(t *testing.T) {
	handler := NewDashboardHandler(&MockDashboard{
		SummarizeFunc: func(ctx context.Context, userID int64, asOf civil.Date) (*dashboard.Summary, error) {
			want := civil.Date{Year: 2026, Month: 8, Day: 30}
			if asOf != want {
				t.Errorf("asOf = %v, want %v", asOf, want)
			}
			return &dashboard.Summary{
				AsOf:         asOf,
				TotalBalance: 1500,
				Degraded:     []string{"forecast"},
			}, nil
		},
	})

	req := authedRequest(http.MethodGet, "/api/dashboard?asOf=2026-08-30", nil, 1)
	rr := httptest.NewRecorder()
	handler.HandleDashboard(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var summary dashboard.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if summary.TotalBalance != 1500 {
		t.Errorf("totalBalance = %v, want 1500", summary.TotalBalance)
	}
	if len(summary.Degraded) != 1 || summary.Degraded[0] != "forecast" {
		t.Errorf("degraded = %v, want [forecast]", summary.Degraded)
	}
}

func TestHandleDashboard_Failure(t *testing.T) {
	handler := NewDashboardHandler(&MockDashboard{
		SummarizeFunc: func(ctx context.Context, userID int64, asOf civil.Date) (*dashboard.Summary, error) {
			return nil, errors.New("ledger unavailable")
		},
	})

	req := authedRequest(http.MethodGet, "/api/dashboard", nil, 1)
	rr := httptest.NewRecorder()
	handler.HandleDashboard(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

type MockSync struct {
	SyncUserFunc func(ctx context.Context, userID int64) (*sync.Result, error)
}

func (m *MockSync) SyncUser(ctx context.Context, userID int64) (*sync.Result, error) {
	if m.SyncUserFunc != nil {
		return m.SyncUserFunc(ctx, userID)
	}
	return &sync.Result{UserID: userID}, nil
}

func TestHandleSync(t *testing.T) {
	handler := NewSyncHandler(&MockSync{
		SyncUserFunc: func(ctx context.Context, userID int64) (*sync.Result, error) {
			return &sync.Result{UserID: userID, ItemsSynced: 2, Created: 5}, nil
		},
	})

	req := authedRequest(http.MethodPost, "/api/sync", nil, 1)
	rr := httptest.NewRecorder()
	handler.HandleSync(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var result sync.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if result.Created != 5 {
		t.Errorf("created = %d, want 5", result.Created)
	}
}

func TestHandleSync_MethodNotAllowed(t *testing.T) {
	handler := NewSyncHandler(&MockSync{})

	req := authedRequest(http.MethodGet, "/api/sync", nil, 1)
	rr := httptest.NewRecorder()
	handler.HandleSync(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}
