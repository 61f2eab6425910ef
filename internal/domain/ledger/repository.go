package ledger

import "context"

// Repository defines the interface for ledger storage.
//
// Query results are ordered by date descending with a stable tie-break on ID
// ascending, so repeated reads over an unchanged ledger are byte-identical.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Transaction, error)
	// Upsert inserts or replaces the stored version of params.ID. The
	// service decides whether the incoming version wins before calling.
	Upsert(ctx context.Context, params UpsertParams) (*Transaction, error)
	// Query lists transactions matching params (category filtering excluded;
	// see Service.Query). Limit <= 0 returns the full match set.
	Query(ctx context.Context, params QueryParams) ([]*Transaction, error)
	// SetCustomCategory stores or clears a user category override.
	SetCustomCategory(ctx context.Context, id string, custom *string) (*Transaction, error)
	// DeleteByAccount removes every transaction of an account. Used only by
	// account disconnection (cascade).
	DeleteByAccount(ctx context.Context, accountID string) (int64, error)
}
