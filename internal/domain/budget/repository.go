package budget

import "context"

// Repository persists budget definitions. Implementations return (nil, nil)
// when a budget does not exist; the service maps that to ErrNotFound.
type Repository interface {
	Create(ctx context.Context, b *Budget) error
	GetByID(ctx context.Context, id string) (*Budget, error)
	ListByUser(ctx context.Context, userID int64) ([]*Budget, error)
	Update(ctx context.Context, b *Budget) error
	Delete(ctx context.Context, id string) error
}
