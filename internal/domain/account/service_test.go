package account

import (
	"context"
	"errors"
	"testing"
	"time"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	GetByIDFunc      func(ctx context.Context, id string) (*Account, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*Account, error)
	ListByItemIDFunc func(ctx context.Context, itemID string) ([]*Account, error)
	UpsertFunc       func(ctx context.Context, params UpsertParams) (*Account, error)
	DeleteFunc       func(ctx context.Context, id string) error
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID int64) ([]*Account, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRepository) ListByItemID(ctx context.Context, itemID string) ([]*Account, error) {
	if m.ListByItemIDFunc != nil {
		return m.ListByItemIDFunc(ctx, itemID)
	}
	return nil, nil
}

func (m *MockRepository) Upsert(ctx context.Context, params UpsertParams) (*Account, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockPurger is a mock implementation of TransactionPurger
type MockPurger struct {
	DeleteByAccountFunc func(ctx context.Context, accountID string) (int64, error)
	Calls               []string
}

func (m *MockPurger) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	m.Calls = append(m.Calls, accountID)
	if m.DeleteByAccountFunc != nil {
		return m.DeleteByAccountFunc(ctx, accountID)
	}
	return 0, nil
}

func TestGetAccount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		accountID string
		userID    int64
		mock      func() *MockRepository
		wantErr   bool
		errType   error
	}{
		{
			name:      "Success",
			accountID: "acc-123",
			userID:    1,
			mock: func() *MockRepository {
				return &MockRepository{
					GetByIDFunc: func(ctx context.Context, id string) (*Account, error) {
						return &Account{ID: id, UserID: 1}, nil
					},
				}
			},
			wantErr: false,
		},
		{
			name:      "Not Found",
			accountID: "acc-999",
			userID:    1,
			mock: func() *MockRepository {
				return &MockRepository{
					GetByIDFunc: func(ctx context.Context, id string) (*Account, error) {
						return nil, nil
					},
				}
			},
			wantErr: true,
			errType: ErrAccountNotFound,
		},
		{
			name:      "Forbidden",
			accountID: "acc-123",
			userID:    2, // Different user
			mock: func() *MockRepository {
				return &MockRepository{
					GetByIDFunc: func(ctx context.Context, id string) (*Account, error) {
						return &Account{ID: id, UserID: 1}, nil // Owned by user 1
					},
				}
			},
			wantErr: true,
			errType: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.mock()
			service := NewService(repo, &MockPurger{})

			acc, err := service.GetAccount(ctx, tt.accountID, tt.userID)

			if tt.wantErr {
				if err == nil {
					t.Errorf("GetAccount() expected error, got nil")
				}
				if tt.errType != nil && err != tt.errType {
					t.Errorf("GetAccount() expected error type %v, got %v", tt.errType, err)
				}
			} else {
				if err != nil {
					t.Errorf("GetAccount() unexpected error: %v", err)
				}
				if acc == nil {
					t.Errorf("GetAccount() expected account, got nil")
				}
			}
		})
	}
}

func TestUpsertAccount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		params  UpsertParams
		mock    func() *MockRepository
		wantErr bool
		errType error
	}{
		{
			name: "Success",
			params: UpsertParams{
				ID:              "acc-123",
				UserID:          1,
				Name:            "Everyday Checking",
				AccountType:     "depository",
				Subtype:         "checking",
				InstitutionName: "First National",
				Currency:        "USD",
				CurrentBalance:  1250.75,
				SyncedAt:        time.Now(),
			},
			mock: func() *MockRepository {
				return &MockRepository{
					UpsertFunc: func(ctx context.Context, params UpsertParams) (*Account, error) {
						return &Account{
							ID:             params.ID,
							UserID:         params.UserID,
							Name:           params.Name,
							AccountType:    params.AccountType,
							Currency:       params.Currency,
							CurrentBalance: params.CurrentBalance,
						}, nil
					},
				}
			},
			wantErr: false,
		},
		{
			name: "Invalid Account Type",
			params: UpsertParams{
				ID:          "acc-123",
				UserID:      1,
				Name:        "Everyday Checking",
				AccountType: "UNKNOWN",
				Currency:    "USD",
			},
			mock:    func() *MockRepository { return &MockRepository{} },
			wantErr: true,
			errType: ErrInvalidAccountType,
		},
		{
			name: "Invalid Subtype",
			params: UpsertParams{
				ID:          "acc-123",
				UserID:      1,
				Name:        "Everyday Checking",
				AccountType: "depository",
				Subtype:     "piggy bank",
				Currency:    "USD",
			},
			mock:    func() *MockRepository { return &MockRepository{} },
			wantErr: true,
			errType: ErrInvalidAccountSubtype,
		},
		{
			name: "Invalid Currency",
			params: UpsertParams{
				ID:          "acc-123",
				UserID:      1,
				Name:        "Everyday Checking",
				AccountType: "depository",
				Currency:    "INVALID",
			},
			mock:    func() *MockRepository { return &MockRepository{} },
			wantErr: true,
			errType: ErrInvalidCurrency,
		},
		{
			name: "Repository Error",
			params: UpsertParams{
				ID:          "acc-123",
				UserID:      1,
				Name:        "Everyday Checking",
				AccountType: "depository",
				Currency:    "USD",
			},
			mock: func() *MockRepository {
				return &MockRepository{
					UpsertFunc: func(ctx context.Context, params UpsertParams) (*Account, error) {
						return nil, errors.New("db error")
					},
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.mock()
			service := NewService(repo, &MockPurger{})

			acc, err := service.UpsertAccount(ctx, tt.params)

			if tt.wantErr {
				if err == nil {
					t.Errorf("UpsertAccount() expected error, got nil")
				}
				if tt.errType != nil && err != tt.errType {
					t.Errorf("UpsertAccount() expected error type %v, got %v", tt.errType, err)
				}
			} else {
				if err != nil {
					t.Errorf("UpsertAccount() unexpected error: %v", err)
				}
				if acc == nil {
					t.Errorf("UpsertAccount() expected account, got nil")
				}
			}
		})
	}
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("Purges Transactions Then Deletes", func(t *testing.T) {
		deleted := false
		repo := &MockRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*Account, error) {
				return &Account{ID: id, UserID: 1}, nil
			},
			DeleteFunc: func(ctx context.Context, id string) error {
				deleted = true
				return nil
			},
		}
		purger := &MockPurger{
			DeleteByAccountFunc: func(ctx context.Context, accountID string) (int64, error) {
				return 42, nil
			},
		}
		service := NewService(repo, purger)

		if err := service.Disconnect(ctx, "acc-123", 1); err != nil {
			t.Fatalf("Disconnect() unexpected error: %v", err)
		}
		if len(purger.Calls) != 1 || purger.Calls[0] != "acc-123" {
			t.Errorf("purger calls = %v, want [acc-123]", purger.Calls)
		}
		if !deleted {
			t.Error("account row was not deleted")
		}
	})

	t.Run("Forbidden Stops Cascade", func(t *testing.T) {
		repo := &MockRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*Account, error) {
				return &Account{ID: id, UserID: 1}, nil
			},
		}
		purger := &MockPurger{}
		service := NewService(repo, purger)

		if err := service.Disconnect(ctx, "acc-123", 2); err != ErrForbidden {
			t.Fatalf("Disconnect() error = %v, want ErrForbidden", err)
		}
		if len(purger.Calls) != 0 {
			t.Errorf("purger must not run for a forbidden disconnect, got calls %v", purger.Calls)
		}
	})

	t.Run("Purge Failure Keeps Account", func(t *testing.T) {
		deleted := false
		repo := &MockRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*Account, error) {
				return &Account{ID: id, UserID: 1}, nil
			},
			DeleteFunc: func(ctx context.Context, id string) error {
				deleted = true
				return nil
			},
		}
		purger := &MockPurger{
			DeleteByAccountFunc: func(ctx context.Context, accountID string) (int64, error) {
				return 0, errors.New("db error")
			},
		}
		service := NewService(repo, purger)

		if err := service.Disconnect(ctx, "acc-123", 1); err == nil {
			t.Fatal("Disconnect() expected error when purge fails")
		}
		if deleted {
			t.Error("account row must survive a failed purge")
		}
	})
}
