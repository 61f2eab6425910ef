package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/civil"

	"finch/internal/domain/budget"
)

// MockBudgets implements BudgetService for testing
type MockBudgets struct {
	CreateFunc     func(ctx context.Context, b *budget.Budget) (*budget.Budget, error)
	GetByIDFunc    func(ctx context.Context, id string) (*budget.Budget, error)
	ListByUserFunc func(ctx context.Context, userID int64) ([]*budget.Budget, error)
	UpdateFunc     func(ctx context.Context, b *budget.Budget) (*budget.Budget, error)
	DeleteFunc     func(ctx context.Context, id string) error
	StatusFunc     func(ctx context.Context, id string, asOf civil.Date, accountIDs []string) (*budget.Status, error)
	StatusListFunc func(ctx context.Context, userID int64, asOf civil.Date, accountIDs []string) ([]*budget.Status, error)
}

func (m *MockBudgets) Create(ctx context.Context, b *budget.Budget) (*budget.Budget, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, b)
	}
	return b, nil
}

func (m *MockBudgets) GetByID(ctx context.Context, id string) (*budget.Budget, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, budget.ErrNotFound
}

func (m *MockBudgets) ListByUser(ctx context.Context, userID int64) ([]*budget.Budget, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockBudgets) Update(ctx context.Context, b *budget.Budget) (*budget.Budget, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, b)
	}
	return b, nil
}

func (m *MockBudgets) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockBudgets) Status(ctx context.Context, id string, asOf civil.Date, accountIDs []string) (*budget.Status, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, id, asOf, accountIDs)
	}
	return &budget.Status{}, nil
}

func (m *MockBudgets) StatusList(ctx context.Context, userID int64, asOf civil.Date, accountIDs []string) ([]*budget.Status, error) {
	if m.StatusListFunc != nil {
		return m.StatusListFunc(ctx, userID, asOf, accountIDs)
	}
	return nil, nil
}

func activeStatus() *budget.Status {
	return &budget.Status{
		Budget: budget.Budget{
			ID:          "bgt-1",
			UserID:      1,
			Name:        "Food budget",
			Category:    "Food & Dining",
			BudgetLimit: 500,
			PeriodType:  budget.Monthly,
			StartDate:   civil.Date{Year: 2026, Month: 8, Day: 1},
			EndDate:     civil.Date{Year: 2026, Month: 8, Day: 31},
			IsActive:    true,
		},
		State:       budget.StateActive,
		PeriodStart: civil.Date{Year: 2026, Month: 8, Day: 1},
		PeriodEnd:   civil.Date{Year: 2026, Month: 8, Day: 31},
	}
}

func validBudgetBody() map[string]interface{} {
	return map[string]interface{}{
		"name":           "Food budget",
		"category":       "Food & Dining",
		"budgetLimit":    500.0,
		"periodType":     "monthly",
		"startDate":      "2026-08-01",
		"endDate":        "2026-08-31",
		"alertThreshold": 80.0,
		"autoRollover":   true,
	}
}

func TestHandleBudgets_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		mockBudgets    func() *MockBudgets
		expectedStatus int
	}{
		{
			name: "Success",
			body: validBudgetBody(),
			mockBudgets: func() *MockBudgets {
				return &MockBudgets{
					CreateFunc: func(ctx context.Context, b *budget.Budget) (*budget.Budget, error) {
						if b.UserID != 1 {
							t.Errorf("expected user 1, got %d", b.UserID)
						}
						if !b.IsActive {
							t.Error("new budgets should default to active")
						}
						b.ID = "bgt-1"
						return b, nil
					},
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Bad date format",
			body: func() map[string]interface{} {
				b := validBudgetBody()
				b["startDate"] = "August 1st"
				return b
			}(),
			mockBudgets:    func() *MockBudgets { return &MockBudgets{} },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Validation failure surfaces as 400",
			body: validBudgetBody(),
			mockBudgets: func() *MockBudgets {
				return &MockBudgets{
					CreateFunc: func(ctx context.Context, b *budget.Budget) (*budget.Budget, error) {
						return nil, &budget.ValidationError{Field: "budgetLimit", Msg: "must be positive"}
					},
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewBudgetHandler(tt.mockBudgets(), &MockAccounts{})

			bodyBytes, _ := json.Marshal(tt.body)
			req := authedRequest(http.MethodPost, "/api/budgets", bodyBytes, 1)
			rr := httptest.NewRecorder()
			handler.HandleBudgets(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandleBudget_Ownership(t *testing.T) {
	owned := &budget.Budget{ID: "bgt-1", UserID: 1, Name: "Food budget"}

	tests := []struct {
		name           string
		method         string
		userID         int64
		expectedStatus int
	}{
		{"Owner reads", http.MethodGet, 1, http.StatusOK},
		{"Stranger blocked", http.MethodGet, 2, http.StatusForbidden},
		{"Stranger cannot delete", http.MethodDelete, 2, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewBudgetHandler(&MockBudgets{
				GetByIDFunc: func(ctx context.Context, id string) (*budget.Budget, error) {
					return owned, nil
				},
			}, &MockAccounts{})

			req := authedRequest(tt.method, "/api/budgets/bgt-1", nil, tt.userID)
			rr := httptest.NewRecorder()
			handler.HandleBudget(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandleBudget_NotFound(t *testing.T) {
	handler := NewBudgetHandler(&MockBudgets{
		GetByIDFunc: func(ctx context.Context, id string) (*budget.Budget, error) {
			return nil, budget.ErrNotFound
		},
	}, &MockAccounts{})

	req := authedRequest(http.MethodGet, "/api/budgets/missing", nil, 1)
	rr := httptest.NewRecorder()
	handler.HandleBudget(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestHandleBudget_Status(t *testing.T) {
	handler := NewBudgetHandler(&MockBudgets{
		GetByIDFunc: func(ctx context.Context, id string) (*budget.Budget, error) {
			return &budget.Budget{ID: "bgt-1", UserID: 1}, nil
		},
		StatusFunc: func(ctx context.Context, id string, asOf civil.Date, accountIDs []string) (*budget.Status, error) {
			want := civil.Date{Year: 2026, Month: 8, Day: 15}
			if asOf != want {
				t.Errorf("asOf = %v, want %v", asOf, want)
			}
			if len(accountIDs) != 1 || accountIDs[0] != "acc-1" {
				t.Errorf("accountIDs = %v, want [acc-1]", accountIDs)
			}
			return activeStatus(), nil
		},
	}, &MockAccounts{})

	req := authedRequest(http.MethodGet, "/api/budgets/bgt-1/status?asOf=2026-08-15", nil, 1)
	rr := httptest.NewRecorder()
	handler.HandleBudget(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var status budget.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if status.State != budget.StateActive {
		t.Errorf("state = %q, want %q", status.State, budget.StateActive)
	}
}

func TestHandleBudgetStatuses(t *testing.T) {
	handler := NewBudgetHandler(&MockBudgets{
		StatusListFunc: func(ctx context.Context, userID int64, asOf civil.Date, accountIDs []string) ([]*budget.Status, error) {
			return []*budget.Status{activeStatus()}, nil
		},
	}, &MockAccounts{})

	req := authedRequest(http.MethodGet, "/api/budgets/status", nil, 1)
	rr := httptest.NewRecorder()
	handler.HandleBudgetStatuses(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var statuses []*budget.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(statuses) != 1 {
		t.Errorf("expected 1 status, got %d", len(statuses))
	}
}

func TestHandleBudget_Update(t *testing.T) {
	handler := NewBudgetHandler(&MockBudgets{
		GetByIDFunc: func(ctx context.Context, id string) (*budget.Budget, error) {
			return &budget.Budget{ID: "bgt-1", UserID: 1}, nil
		},
		UpdateFunc: func(ctx context.Context, b *budget.Budget) (*budget.Budget, error) {
			if b.ID != "bgt-1" {
				t.Errorf("expected update of bgt-1, got %q", b.ID)
			}
			if b.Name != "Trimmed food budget" {
				t.Errorf("unexpected name %q", b.Name)
			}
			return b, nil
		},
	}, &MockAccounts{})

	body := validBudgetBody()
	body["name"] = "Trimmed food budget"
	bodyBytes, _ := json.Marshal(body)

	req := authedRequest(http.MethodPut, "/api/budgets/bgt-1", bodyBytes, 1)
	rr := httptest.NewRecorder()
	handler.HandleBudget(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}
