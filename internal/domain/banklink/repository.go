package banklink

import (
	"context"
	"time"
)

// Repository persists bank connections. Implementations return (nil, nil)
// when an item does not exist.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	ListByUser(ctx context.Context, userID int64) ([]*Item, error)

	// ListUserIDs returns the distinct users that have at least one link.
	// The scheduler iterates it for full syncs.
	ListUserIDs(ctx context.Context) ([]int64, error)

	UpdateLastSync(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
