package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"finch/internal/domain/banklink"
)

type BanklinkRepository struct {
	db *DB
}

func NewBanklinkRepository(db *DB) *BanklinkRepository {
	return &BanklinkRepository{db: db}
}

var _ banklink.Repository = (*BanklinkRepository)(nil)

const itemColumns = `id, user_id, access_token, institution_name, created_at, last_sync`

func scanItem(scan func(dest ...any) error) (*banklink.Item, error) {
	var item banklink.Item
	var lastSync sql.NullTime

	err := scan(&item.ID, &item.UserID, &item.AccessToken, &item.InstitutionName, &item.CreatedAt, &lastSync)
	if err != nil {
		return nil, err
	}
	if lastSync.Valid {
		item.LastSync = lastSync.Time
	}
	return &item, nil
}

func (r *BanklinkRepository) Create(ctx context.Context, item *banklink.Item) error {
	query := `
		INSERT INTO bank_links (id, user_id, access_token, institution_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, item.ID, item.UserID, item.AccessToken, item.InstitutionName, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bank link: %w", err)
	}
	return nil
}

func (r *BanklinkRepository) GetByID(ctx context.Context, id string) (*banklink.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bank_links
		WHERE id = $1
	`, itemColumns)

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank link: %w", err)
	}
	return item, nil
}

func (r *BanklinkRepository) ListByUser(ctx context.Context, userID int64) ([]*banklink.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bank_links
		WHERE user_id = $1
		ORDER BY id
	`, itemColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank links: %w", err)
	}
	defer rows.Close()

	var items []*banklink.Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank link: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank links: %w", err)
	}
	return items, nil
}

func (r *BanklinkRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT user_id FROM bank_links ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked users: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating linked users: %w", err)
	}
	return userIDs, nil
}

func (r *BanklinkRepository) UpdateLastSync(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE bank_links SET last_sync = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last sync: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return banklink.ErrItemNotFound
	}
	return nil
}

func (r *BanklinkRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM bank_links WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete bank link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return banklink.ErrItemNotFound
	}
	return nil
}
