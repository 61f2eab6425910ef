package ledger

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
)

// Domain errors
var (
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrTransactionRequired = errors.New("transaction ID is required")
	ErrAccountRequired     = errors.New("account ID is required")
	ErrDateRequired        = errors.New("transaction date is required")
)

// Transaction is an immutable record of money movement.
//
// Amount uses the system-wide sign convention: positive means money leaving
// the account (an expense), negative means money entering (income or a
// credit). Provider feeds with the opposite convention are normalized once,
// at the sync boundary, before a Transaction is ever constructed.
type Transaction struct {
	ID               string     `json:"id"` // provider-issued, stable across syncs
	AccountID        string     `json:"accountId"`
	Amount           float64    `json:"amount"`
	Name             string     `json:"name"`
	Date             civil.Date `json:"date"` // calendar day of the movement, not sync time
	ProviderCategory []string   `json:"providerCategory,omitempty"`
	CustomCategory   *string    `json:"customCategory,omitempty"`
	Pending          bool       `json:"pending"`
	SyncedAt         time.Time  `json:"syncedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// UpsertParams carries one transaction from a sync batch into the ledger.
type UpsertParams struct {
	ID               string
	AccountID        string
	Amount           float64
	Name             string
	Date             civil.Date
	ProviderCategory []string
	Pending          bool
	SyncedAt         time.Time
}

// Validate checks the minimal integrity requirements for ingestion.
func (p UpsertParams) Validate() error {
	if p.ID == "" {
		return ErrTransactionRequired
	}
	if p.AccountID == "" {
		return ErrAccountRequired
	}
	if !p.Date.IsValid() {
		return ErrDateRequired
	}
	return nil
}

// IngestResult summarizes the outcome of one ledger ingestion batch.
type IngestResult struct {
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Conflicts int      `json:"conflicts"`
	Errors    []string `json:"errors,omitempty"`
}

// QueryParams filters and paginates ledger reads.
//
// Limit <= 0 means unbounded: internal aggregation scans the full ledger and
// must never be silently capped. The HTTP layer applies its own page cap.
type QueryParams struct {
	AccountID  string
	AccountIDs []string // non-empty restricts to this account set
	Category   string   // resolved-category filter, applied by the service
	StartDate  civil.Date
	EndDate    civil.Date
	Limit      int
	Offset     int
}
