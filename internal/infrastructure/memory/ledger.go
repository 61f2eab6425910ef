// Package memory provides mutex-guarded in-memory implementations of the
// domain repositories. They back the test suites and any deployment that
// runs without Postgres (demos, local development).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"finch/internal/domain/ledger"
)

// LedgerRepository is an in-memory ledger.Repository.
type LedgerRepository struct {
	mu  sync.RWMutex
	txs map[string]*ledger.Transaction
}

// NewLedgerRepository creates an empty in-memory ledger store.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{txs: make(map[string]*ledger.Transaction)}
}

var _ ledger.Repository = (*LedgerRepository)(nil)

func (r *LedgerRepository) GetByID(_ context.Context, id string) (*ledger.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.txs[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *LedgerRepository) Upsert(_ context.Context, params ledger.UpsertParams) (*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.txs[params.ID]

	t := &ledger.Transaction{
		ID:               params.ID,
		AccountID:        params.AccountID,
		Amount:           params.Amount,
		Name:             params.Name,
		Date:             params.Date,
		ProviderCategory: append([]string(nil), params.ProviderCategory...),
		Pending:          params.Pending,
		SyncedAt:         params.SyncedAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if ok {
		t.CreatedAt = existing.CreatedAt
		t.CustomCategory = existing.CustomCategory
	}

	r.txs[params.ID] = t
	cp := *t
	return &cp, nil
}

func (r *LedgerRepository) Query(_ context.Context, params ledger.QueryParams) ([]*ledger.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accountSet := map[string]struct{}{}
	for _, id := range params.AccountIDs {
		accountSet[id] = struct{}{}
	}

	var matched []*ledger.Transaction
	for _, t := range r.txs {
		if params.AccountID != "" && t.AccountID != params.AccountID {
			continue
		}
		if len(accountSet) > 0 {
			if _, ok := accountSet[t.AccountID]; !ok {
				continue
			}
		}
		if params.StartDate.IsValid() && t.Date.Before(params.StartDate) {
			continue
		}
		if params.EndDate.IsValid() && t.Date.After(params.EndDate) {
			continue
		}
		cp := *t
		matched = append(matched, &cp)
	}

	// Date descending, stable tie-break on ID ascending.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[j].Date.Before(matched[i].Date)
		}
		return matched[i].ID < matched[j].ID
	})

	if params.Offset > 0 {
		if params.Offset >= len(matched) {
			return []*ledger.Transaction{}, nil
		}
		matched = matched[params.Offset:]
	}
	if params.Limit > 0 && len(matched) > params.Limit {
		matched = matched[:params.Limit]
	}
	return matched, nil
}

func (r *LedgerRepository) SetCustomCategory(_ context.Context, id string, custom *string) (*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.txs[id]
	if !ok {
		return nil, nil
	}
	if custom != nil && *custom == "" {
		custom = nil
	}
	t.CustomCategory = custom
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

func (r *LedgerRepository) DeleteByAccount(_ context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, t := range r.txs {
		if t.AccountID == accountID {
			delete(r.txs, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored transactions. Test helper.
func (r *LedgerRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.txs)
}
