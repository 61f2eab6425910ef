package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"finch/internal/domain/account"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

var _ account.Repository = (*AccountRepository)(nil)

const accountColumns = `id, user_id, item_id, name, official_name, account_type, subtype, mask,
	       institution_name, currency, current_balance, available_balance, last_sync,
	       created_at, updated_at`

func scanAccount(scan func(dest ...any) error) (*account.Account, error) {
	var a account.Account
	var officialName, subtype, mask sql.NullString
	var lastSync sql.NullTime

	err := scan(
		&a.ID, &a.UserID, &a.ItemID, &a.Name, &officialName, &a.AccountType,
		&subtype, &mask, &a.InstitutionName, &a.Currency,
		&a.CurrentBalance, &a.AvailableBalance, &lastSync,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.OfficialName = officialName.String
	a.Subtype = subtype.String
	a.Mask = mask.String
	if lastSync.Valid {
		a.LastSync = lastSync.Time
	}
	return &a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM accounts
		WHERE id = $1
	`, accountColumns)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) listBy(ctx context.Context, query string, arg any) ([]*account.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM accounts
		WHERE user_id = $1
		ORDER BY id
	`, accountColumns)
	return r.listBy(ctx, query, userID)
}

func (r *AccountRepository) ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM accounts
		WHERE item_id = $1
		ORDER BY id
	`, accountColumns)
	return r.listBy(ctx, query, itemID)
}

// Upsert inserts or refreshes an account row (used by bank-link sync).
func (r *AccountRepository) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	query := fmt.Sprintf(`
		INSERT INTO accounts (id, user_id, item_id, name, official_name, account_type, subtype,
		                      mask, institution_name, currency, current_balance, available_balance, last_sync)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
		    user_id = EXCLUDED.user_id,
		    item_id = EXCLUDED.item_id,
		    name = EXCLUDED.name,
		    official_name = EXCLUDED.official_name,
		    account_type = EXCLUDED.account_type,
		    subtype = EXCLUDED.subtype,
		    mask = EXCLUDED.mask,
		    institution_name = EXCLUDED.institution_name,
		    currency = EXCLUDED.currency,
		    current_balance = EXCLUDED.current_balance,
		    available_balance = EXCLUDED.available_balance,
		    last_sync = EXCLUDED.last_sync,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING %s
	`, accountColumns)

	a, err := scanAccount(r.db.QueryRowContext(
		ctx, query,
		params.ID, params.UserID, params.ItemID, params.Name, params.OfficialName,
		params.AccountType, params.Subtype, params.Mask, params.InstitutionName,
		params.Currency, params.CurrentBalance, params.AvailableBalance, params.SyncedAt,
	).Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}
