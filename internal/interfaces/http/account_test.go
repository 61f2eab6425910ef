package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"finch/internal/domain/account"
)

func TestHandleListAccounts(t *testing.T) {
	tests := []struct {
		name           string
		userID         int64
		mockAccounts   func() *MockAccounts
		expectedStatus int
		expectedCount  int
	}{
		{
			name:   "Success",
			userID: 1,
			mockAccounts: func() *MockAccounts {
				return &MockAccounts{
					ListAccountsByUserIDFunc: func(ctx context.Context, userID int64) ([]*account.Account, error) {
						return []*account.Account{
							{ID: "acc-1", UserID: 1},
							{ID: "acc-2", UserID: 1},
						}, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:   "Empty list stays an array",
			userID: 1,
			mockAccounts: func() *MockAccounts {
				return &MockAccounts{
					ListAccountsByUserIDFunc: func(ctx context.Context, userID int64) ([]*account.Account, error) {
						return nil, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAccountHandler(tt.mockAccounts())

			req := authedRequest(http.MethodGet, "/api/accounts", nil, tt.userID)
			rr := httptest.NewRecorder()
			handler.HandleListAccounts(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}

			var accounts []*account.Account
			if err := json.Unmarshal(rr.Body.Bytes(), &accounts); err != nil {
				t.Fatalf("response is not a JSON array: %v", err)
			}
			if len(accounts) != tt.expectedCount {
				t.Errorf("expected %d accounts, got %d", tt.expectedCount, len(accounts))
			}
		})
	}
}

func TestHandleGetAccount(t *testing.T) {
	tests := []struct {
		name           string
		userID         int64
		mockAccounts   func() *MockAccounts
		expectedStatus int
	}{
		{
			name:   "Success",
			userID: 1,
			mockAccounts: func() *MockAccounts {
				return &MockAccounts{
					GetAccountFunc: func(ctx context.Context, accountID string, userID int64) (*account.Account, error) {
						return &account.Account{ID: accountID, UserID: 1}, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Not Found",
			userID: 1,
			mockAccounts: func() *MockAccounts {
				return &MockAccounts{
					GetAccountFunc: func(ctx context.Context, accountID string, userID int64) (*account.Account, error) {
						return nil, account.ErrAccountNotFound
					},
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "Forbidden",
			userID: 2,
			mockAccounts: func() *MockAccounts {
				return &MockAccounts{
					GetAccountFunc: func(ctx context.Context, accountID string, userID int64) (*account.Account, error) {
						return nil, account.ErrForbidden
					},
				}
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAccountHandler(tt.mockAccounts())

			req := authedRequest(http.MethodGet, "/api/accounts/acc-1", nil, tt.userID)
			rr := httptest.NewRecorder()
			handler.HandleGetAccount(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandleDisconnectAccount(t *testing.T) {
	tests := []struct {
		name           string
		userID         int64
		mockAccounts   func() *MockAccounts
		expectedStatus int
	}{
		{
			name:   "Success",
			userID: 1,
			mockAccounts: func() *MockAccounts {
				return &MockAccounts{
					DisconnectFunc: func(ctx context.Context, accountID string, userID int64) error {
						return nil
					},
				}
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "Forbidden",
			userID: 2,
			mockAccounts: func() *MockAccounts {
				return &MockAccounts{
					DisconnectFunc: func(ctx context.Context, accountID string, userID int64) error {
						return account.ErrForbidden
					},
				}
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:   "Not Found",
			userID: 1,
			mockAccounts: func() *MockAccounts {
				return &MockAccounts{
					DisconnectFunc: func(ctx context.Context, accountID string, userID int64) error {
						return account.ErrAccountNotFound
					},
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAccountHandler(tt.mockAccounts())

			req := authedRequest(http.MethodDelete, "/api/accounts/acc-1", nil, tt.userID)
			rr := httptest.NewRecorder()
			handler.HandleDisconnectAccount(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
		})
	}
}
