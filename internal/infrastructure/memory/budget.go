package memory

import (
	"context"
	"sort"
	"sync"

	"finch/internal/domain/budget"
)

// BudgetRepository is an in-memory budget.Repository. It mirrors the
// (nil, nil) not-found convention of the SQL repositories.
type BudgetRepository struct {
	mu      sync.RWMutex
	budgets map[string]budget.Budget
}

func NewBudgetRepository() *BudgetRepository {
	return &BudgetRepository{budgets: make(map[string]budget.Budget)}
}

func (r *BudgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.budgets[b.ID] = *b
	return nil
}

func (r *BudgetRepository) GetByID(ctx context.Context, id string) (*budget.Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.budgets[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *BudgetRepository) ListByUser(ctx context.Context, userID int64) ([]*budget.Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*budget.Budget, 0)
	for _, b := range r.budgets {
		if b.UserID != userID {
			continue
		}
		cp := b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *BudgetRepository) Update(ctx context.Context, b *budget.Budget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.budgets[b.ID] = *b
	return nil
}

func (r *BudgetRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.budgets, id)
	return nil
}
