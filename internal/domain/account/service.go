package account

import (
	"context"
	"errors"

	"finch/internal/shared/logging"
)

// TransactionPurger removes a disconnected account's transactions from the
// ledger. The ledger service satisfies it.
type TransactionPurger interface {
	DeleteByAccount(ctx context.Context, accountID string) (int64, error)
}

// Service contains the business logic for account operations
type Service struct {
	repo   Repository
	purger TransactionPurger
}

// NewService creates a new account service
func NewService(repo Repository, purger TransactionPurger) *Service {
	return &Service{repo: repo, purger: purger}
}

// GetAccount retrieves an account by ID and verifies user ownership
func (s *Service) GetAccount(ctx context.Context, accountID string, userID int64) (*Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	// Business rule: verify ownership
	if account.UserID != userID {
		return nil, ErrForbidden
	}

	return account, nil
}

// ListAccountsByUserID retrieves all accounts for a specific user
func (s *Service) ListAccountsByUserID(ctx context.Context, userID int64) ([]*Account, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}

	return s.repo.ListByUserID(ctx, userID)
}

// AccountIDs returns the IDs of every account the user owns. Budget
// evaluation and dashboard aggregation use it to scope ledger reads.
func (s *Service) AccountIDs(ctx context.Context, userID int64) ([]string, error) {
	accounts, err := s.ListAccountsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// ListByItemID returns the IDs of every account under a bank connection.
func (s *Service) ListByItemID(ctx context.Context, itemID string) ([]string, error) {
	accounts, err := s.repo.ListByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// UpsertAccount creates or refreshes an account from a sync pass.
func (s *Service) UpsertAccount(ctx context.Context, params UpsertParams) (*Account, error) {
	if params.Currency == "" {
		params.Currency = "USD"
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Upsert(ctx, params)
}

// Disconnect removes an account and cascades to its ledger history. The
// ownership check runs first so one user can never unlink another's account.
func (s *Service) Disconnect(ctx context.Context, accountID string, userID int64) error {
	if _, err := s.GetAccount(ctx, accountID, userID); err != nil {
		return err
	}

	purged, err := s.purger.DeleteByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, accountID); err != nil {
		return err
	}

	logging.FromContext(ctx).Info().
		Str("account_id", accountID).
		Int64("transactions_purged", purged).
		Msg("account disconnected")
	return nil
}
