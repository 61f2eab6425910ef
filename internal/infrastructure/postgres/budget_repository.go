package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"cloud.google.com/go/civil"

	"finch/internal/domain/budget"
)

type BudgetRepository struct {
	db *DB
}

func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

var _ budget.Repository = (*BudgetRepository)(nil)

const budgetColumns = `id, user_id, name, category, budget_limit, period_type, start_date, end_date,
	       alert_threshold, auto_rollover, is_active, created_at, updated_at`

func scanBudget(scan func(dest ...any) error) (*budget.Budget, error) {
	var b budget.Budget
	var periodType string
	var startDate, endDate sql.NullTime

	err := scan(
		&b.ID, &b.UserID, &b.Name, &b.Category, &b.BudgetLimit, &periodType,
		&startDate, &endDate, &b.AlertThreshold, &b.AutoRollover, &b.IsActive,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.PeriodType = budget.PeriodType(periodType)
	if startDate.Valid {
		b.StartDate = civil.DateOf(startDate.Time)
	}
	if endDate.Valid {
		b.EndDate = civil.DateOf(endDate.Time)
	}
	return &b, nil
}

func (r *BudgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	query := `
		INSERT INTO budgets (id, user_id, name, category, budget_limit, period_type,
		                     start_date, end_date, alert_threshold, auto_rollover, is_active,
		                     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		b.ID, b.UserID, b.Name, b.Category, b.BudgetLimit, string(b.PeriodType),
		b.StartDate.String(), b.EndDate.String(), b.AlertThreshold, b.AutoRollover,
		b.IsActive, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

func (r *BudgetRepository) GetByID(ctx context.Context, id string) (*budget.Budget, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM budgets
		WHERE id = $1
	`, budgetColumns)

	b, err := scanBudget(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return b, nil
}

func (r *BudgetRepository) ListByUser(ctx context.Context, userID int64) ([]*budget.Budget, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM budgets
		WHERE user_id = $1
		ORDER BY created_at
	`, budgetColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*budget.Budget
	for rows.Next() {
		b, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}

func (r *BudgetRepository) Update(ctx context.Context, b *budget.Budget) error {
	query := `
		UPDATE budgets
		SET name = $1,
		    category = $2,
		    budget_limit = $3,
		    period_type = $4,
		    start_date = $5,
		    end_date = $6,
		    alert_threshold = $7,
		    auto_rollover = $8,
		    is_active = $9,
		    updated_at = $10
		WHERE id = $11
	`

	result, err := r.db.ExecContext(
		ctx, query,
		b.Name, b.Category, b.BudgetLimit, string(b.PeriodType),
		b.StartDate.String(), b.EndDate.String(), b.AlertThreshold,
		b.AutoRollover, b.IsActive, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return budget.ErrNotFound
	}
	return nil
}

func (r *BudgetRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM budgets WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return budget.ErrNotFound
	}
	return nil
}
