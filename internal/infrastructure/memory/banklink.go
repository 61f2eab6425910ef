package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"finch/internal/domain/banklink"
)

// BanklinkRepository is an in-memory banklink.Repository.
type BanklinkRepository struct {
	mu    sync.RWMutex
	items map[string]banklink.Item
}

func NewBanklinkRepository() *BanklinkRepository {
	return &BanklinkRepository{items: make(map[string]banklink.Item)}
}

func (r *BanklinkRepository) Create(ctx context.Context, item *banklink.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *BanklinkRepository) GetByID(ctx context.Context, id string) (*banklink.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *BanklinkRepository) ListByUser(ctx context.Context, userID int64) ([]*banklink.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*banklink.Item, 0)
	for _, item := range r.items {
		if item.UserID != userID {
			continue
		}
		cp := item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *BanklinkRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[int64]struct{})
	out := make([]int64, 0)
	for _, item := range r.items {
		if _, ok := seen[item.UserID]; ok {
			continue
		}
		seen[item.UserID] = struct{}{}
		out = append(out, item.UserID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *BanklinkRepository) UpdateLastSync(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return banklink.ErrItemNotFound
	}
	item.LastSync = at
	r.items[id] = item
	return nil
}

func (r *BanklinkRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}
