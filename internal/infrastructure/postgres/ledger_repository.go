package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/lib/pq"

	"finch/internal/domain/ledger"
)

type LedgerRepository struct {
	db *DB
}

func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

var _ ledger.Repository = (*LedgerRepository)(nil)

const transactionColumns = `id, account_id, amount, name, transaction_date, provider_category,
	       custom_category, pending, synced_at, created_at, updated_at`

func scanTransaction(scan func(dest ...any) error) (*ledger.Transaction, error) {
	var t ledger.Transaction
	var txDate sql.NullTime
	var customCategory sql.NullString

	err := scan(
		&t.ID, &t.AccountID, &t.Amount, &t.Name, &txDate,
		pq.Array(&t.ProviderCategory), &customCategory, &t.Pending,
		&t.SyncedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if txDate.Valid {
		t.Date = civil.DateOf(txDate.Time)
	}
	if customCategory.Valid {
		t.CustomCategory = &customCategory.String
	}
	return &t, nil
}

func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*ledger.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE id = $1
	`, transactionColumns)

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// Upsert inserts or replaces a transaction row. Custom categories are user
// state, not provider state, so a resync never clobbers them.
func (r *LedgerRepository) Upsert(ctx context.Context, params ledger.UpsertParams) (*ledger.Transaction, error) {
	query := fmt.Sprintf(`
		INSERT INTO transactions (id, account_id, amount, name, transaction_date,
		                          provider_category, pending, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
		    account_id = EXCLUDED.account_id,
		    amount = EXCLUDED.amount,
		    name = EXCLUDED.name,
		    transaction_date = EXCLUDED.transaction_date,
		    provider_category = EXCLUDED.provider_category,
		    pending = EXCLUDED.pending,
		    synced_at = EXCLUDED.synced_at,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING %s
	`, transactionColumns)

	t, err := scanTransaction(r.db.QueryRowContext(
		ctx, query,
		params.ID, params.AccountID, params.Amount, params.Name, params.Date.String(),
		pq.Array(params.ProviderCategory), params.Pending, params.SyncedAt,
	).Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return t, nil
}

// Query filters and paginates transaction rows, newest day first with ID as
// the tie-break so pagination is stable.
func (r *LedgerRepository) Query(ctx context.Context, params ledger.QueryParams) ([]*ledger.Transaction, error) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.AccountID != "" {
		conditions = append(conditions, "account_id = "+arg(params.AccountID))
	}
	if len(params.AccountIDs) > 0 {
		conditions = append(conditions, "account_id = ANY("+arg(pq.Array(params.AccountIDs))+")")
	}
	if params.StartDate.IsValid() {
		conditions = append(conditions, "transaction_date >= "+arg(params.StartDate.String()))
	}
	if params.EndDate.IsValid() {
		conditions = append(conditions, "transaction_date <= "+arg(params.EndDate.String()))
	}

	query := fmt.Sprintf("SELECT %s FROM transactions", transactionColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY transaction_date DESC, id ASC"
	if params.Limit > 0 {
		query += " LIMIT " + arg(params.Limit)
	}
	if params.Offset > 0 {
		query += " OFFSET " + arg(params.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

func (r *LedgerRepository) SetCustomCategory(ctx context.Context, id string, custom *string) (*ledger.Transaction, error) {
	query := fmt.Sprintf(`
		UPDATE transactions
		SET custom_category = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING %s
	`, transactionColumns)

	var value sql.NullString
	if custom != nil {
		value = sql.NullString{String: *custom, Valid: true}
	}

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, value, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set custom category: %w", err)
	}
	return t, nil
}

func (r *LedgerRepository) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	query := `DELETE FROM transactions WHERE account_id = $1`

	result, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}
	return result.RowsAffected()
}
