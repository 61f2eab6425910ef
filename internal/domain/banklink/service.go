package banklink

import (
	"context"
	"fmt"
	"time"

	"finch/internal/infrastructure/bankfeed"
	"finch/internal/shared/logging"
)

// AccountUnlinker disconnects accounts when their bank connection goes away.
// The account service satisfies it.
type AccountUnlinker interface {
	Disconnect(ctx context.Context, accountID string, userID int64) error
}

// AccountLister lists the accounts under a connection.
type AccountLister interface {
	ListByItemID(ctx context.Context, itemID string) ([]string, error)
}

// Service manages bank connections: exchanging link tokens, listing and
// unlinking.
type Service struct {
	repo     Repository
	client   bankfeed.ClientInterface
	unlinker AccountUnlinker
	lister   AccountLister
}

func NewService(repo Repository, client bankfeed.ClientInterface, unlinker AccountUnlinker, lister AccountLister) *Service {
	return &Service{repo: repo, client: client, unlinker: unlinker, lister: lister}
}

// Link exchanges a public token from the link flow for an access token and
// stores the resulting connection. The first sync is left to the caller.
func (s *Service) Link(ctx context.Context, userID int64, publicToken, institutionName string) (*Item, error) {
	if publicToken == "" {
		return nil, ErrTokenRequired
	}

	exchange, err := s.client.ExchangeToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeRejected, err)
	}

	item := &Item{
		ID:              exchange.ItemID,
		UserID:          userID,
		AccessToken:     exchange.AccessToken,
		InstitutionName: institutionName,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info().
		Str("item_id", item.ID).
		Str("institution", institutionName).
		Msg("bank connection linked")
	return item, nil
}

// ListByUser lists the user's bank connections.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Item, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetOwned fetches an item and verifies ownership.
func (s *Service) GetOwned(ctx context.Context, itemID string, userID int64) (*Item, error) {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.UserID != userID {
		return nil, ErrForbidden
	}
	return item, nil
}

// Unlink removes a connection and disconnects every account under it,
// cascading each account's ledger history.
func (s *Service) Unlink(ctx context.Context, itemID string, userID int64) error {
	item, err := s.GetOwned(ctx, itemID, userID)
	if err != nil {
		return err
	}

	accountIDs, err := s.lister.ListByItemID(ctx, item.ID)
	if err != nil {
		return err
	}
	for _, id := range accountIDs {
		if err := s.unlinker.Disconnect(ctx, id, userID); err != nil {
			return fmt.Errorf("disconnecting account %s: %w", id, err)
		}
	}

	return s.repo.Delete(ctx, item.ID)
}
