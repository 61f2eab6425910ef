package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"finch/internal/domain/account"
)

// AccountRepository is an in-memory account.Repository.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]account.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]account.Account)}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*account.Account, 0)
	for _, a := range r.accounts {
		if a.UserID != userID {
			continue
		}
		cp := a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AccountRepository) ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*account.Account, 0)
	for _, a := range r.accounts {
		if a.ItemID != itemID {
			continue
		}
		cp := a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AccountRepository) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	a, exists := r.accounts[params.ID]
	if !exists {
		a = account.Account{ID: params.ID, CreatedAt: now}
	}
	a.UserID = params.UserID
	a.ItemID = params.ItemID
	a.Name = params.Name
	a.OfficialName = params.OfficialName
	a.AccountType = params.AccountType
	a.Subtype = params.Subtype
	a.Mask = params.Mask
	a.InstitutionName = params.InstitutionName
	a.Currency = params.Currency
	a.CurrentBalance = params.CurrentBalance
	a.AvailableBalance = params.AvailableBalance
	a.LastSync = params.SyncedAt
	a.UpdatedAt = now
	r.accounts[params.ID] = a
	cp := a
	return &cp, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}
