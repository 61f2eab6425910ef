package ledger

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"finch/internal/domain/category"
	"finch/internal/shared/logging"
)

var (
	ledgerMeter      = otel.Meter("finch/ledger")
	syncConflicts, _ = ledgerMeter.Int64Counter("ledger.sync.conflicts",
		metric.WithDescription("Transactions where two non-pending syncs disagreed on amount"))
	ingestedTotal, _ = ledgerMeter.Int64Counter("ledger.ingest.total",
		metric.WithDescription("Transactions ingested by outcome"))
)

// Service owns append-or-update ingestion and category-aware reads of the
// transaction ledger.
type Service struct {
	repo Repository

	// Per-account ingestion locks. Two simultaneous syncs of the same
	// account serialize here, so overlapping batches converge to the same
	// final state regardless of interleaving. Reads never take these locks.
	mu           sync.Mutex
	accountLocks map[string]*sync.Mutex
}

// NewService creates a ledger service over the given repository.
func NewService(repo Repository) *Service {
	return &Service{
		repo:         repo,
		accountLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockAccount(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.accountLocks[accountID]
	if !ok {
		l = &sync.Mutex{}
		s.accountLocks[accountID] = l
	}
	return l
}

// Ingest applies a sync batch with append-or-update semantics keyed by
// transaction ID. It is idempotent: re-ingesting an identical batch yields
// only Unchanged outcomes.
//
// Conflict rule between a stored and an incoming version of the same ID:
// the non-pending version wins; between two versions with the same pending
// flag, the most recently synced wins. Two non-pending versions with
// different amounts are a provider correctness anomaly: the newer amount is
// kept but the occurrence is counted and logged.
func (s *Service) Ingest(ctx context.Context, batch []UpsertParams) (*IngestResult, error) {
	log := logging.FromContext(ctx)
	result := &IngestResult{}

	for _, params := range batch {
		if err := params.Validate(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("transaction %q: %v", params.ID, err))
			continue
		}

		lock := s.lockAccount(params.AccountID)
		lock.Lock()
		err := s.ingestOne(ctx, params, result)
		lock.Unlock()

		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("transaction %q: %v", params.ID, err))
		}
	}

	ingestedTotal.Add(ctx, int64(result.Created), metric.WithAttributes(attribute.String("outcome", "created")))
	ingestedTotal.Add(ctx, int64(result.Updated), metric.WithAttributes(attribute.String("outcome", "updated")))

	log.Debug().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("unchanged", result.Unchanged).
		Int("conflicts", result.Conflicts).
		Int("errors", len(result.Errors)).
		Msg("ledger ingest applied")

	return result, nil
}

func (s *Service) ingestOne(ctx context.Context, params UpsertParams, result *IngestResult) error {
	existing, err := s.repo.GetByID(ctx, params.ID)
	if err != nil {
		return fmt.Errorf("failed to load existing transaction: %w", err)
	}

	if existing == nil {
		if _, err := s.repo.Upsert(ctx, params); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		result.Created++
		return nil
	}

	// A pending version never overwrites a posted one.
	if params.Pending && !existing.Pending {
		result.Unchanged++
		return nil
	}

	if sameVersion(existing, params) {
		result.Unchanged++
		return nil
	}

	// Two posted versions disagreeing on amount indicates bad upstream data.
	// Resolve deterministically (newest sync wins) but surface it.
	if !params.Pending && !existing.Pending && params.Amount != existing.Amount {
		result.Conflicts++
		syncConflicts.Add(ctx, 1)
		logging.FromContext(ctx).Warn().
			Str("transaction_id", params.ID).
			Float64("stored_amount", existing.Amount).
			Float64("incoming_amount", params.Amount).
			Msg("conflicting non-pending amounts for transaction")
	}

	if _, err := s.repo.Upsert(ctx, params); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	result.Updated++
	return nil
}

// sameVersion reports whether the incoming params carry no observable change
// over the stored transaction. SyncedAt is deliberately ignored.
func sameVersion(existing *Transaction, params UpsertParams) bool {
	if existing.Amount != params.Amount ||
		existing.Name != params.Name ||
		existing.Date != params.Date ||
		existing.Pending != params.Pending ||
		existing.AccountID != params.AccountID {
		return false
	}
	if len(existing.ProviderCategory) != len(params.ProviderCategory) {
		return false
	}
	for i := range existing.ProviderCategory {
		if existing.ProviderCategory[i] != params.ProviderCategory[i] {
			return false
		}
	}
	return true
}

// Query lists transactions, newest first. When params.Category is set the
// filter applies to the resolved category (user override > provider >
// classifier), which the store cannot compute, so pagination for that case
// happens here after resolution.
func (s *Service) Query(ctx context.Context, params QueryParams) ([]*Transaction, error) {
	if params.Category == "" {
		return s.repo.Query(ctx, params)
	}

	scan := params
	scan.Category = ""
	scan.Limit = 0
	scan.Offset = 0

	all, err := s.repo.Query(ctx, scan)
	if err != nil {
		return nil, err
	}

	matched := make([]*Transaction, 0, len(all))
	for _, t := range all {
		if ResolveCategory(t) == category.Label(params.Category) {
			matched = append(matched, t)
		}
	}

	if params.Offset > 0 {
		if params.Offset >= len(matched) {
			return []*Transaction{}, nil
		}
		matched = matched[params.Offset:]
	}
	if params.Limit > 0 && len(matched) > params.Limit {
		matched = matched[:params.Limit]
	}
	return matched, nil
}

// GetByID returns a transaction, or nil when absent.
func (s *Service) GetByID(ctx context.Context, id string) (*Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

// SetCustomCategory applies or clears a user category override.
func (s *Service) SetCustomCategory(ctx context.Context, id string, custom *string) (*Transaction, error) {
	if custom != nil && *custom != "" && !category.IsValid(category.Label(*custom)) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidTransaction, *custom)
	}
	return s.repo.SetCustomCategory(ctx, id, custom)
}

// DeleteByAccount removes an account's transactions (disconnect cascade).
func (s *Service) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	return s.repo.DeleteByAccount(ctx, accountID)
}

// ResolveCategory attributes a category to a transaction through the single
// system-wide precedence function.
func ResolveCategory(t *Transaction) category.Label {
	return category.Resolve(t.CustomCategory, t.ProviderCategory, t.Name)
}
