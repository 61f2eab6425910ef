package budget

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"finch/internal/shared/logging"
)

// Service owns budget definitions and their lazy evaluation. Statuses are
// never stored: every read recomputes against the ledger, so a budget can
// not drift out of sync with the transactions underneath it.
type Service struct {
	repo      Repository
	evaluator *Evaluator
}

func NewService(repo Repository, evaluator *Evaluator) *Service {
	return &Service{repo: repo, evaluator: evaluator}
}

func (s *Service) Create(ctx context.Context, b *Budget) (*Budget, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	b.ID = uuid.NewString()
	b.IsActive = true
	b.CreatedAt = now
	b.UpdatedAt = now
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Budget, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Budget, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update replaces a budget definition. The stored ID and CreatedAt are
// preserved; everything else comes from the caller.
func (s *Service) Update(ctx context.Context, b *Budget) (*Budget, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.GetByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Status evaluates a single budget at asOf, scoped to the given accounts.
func (s *Service) Status(ctx context.Context, id string, asOf civil.Date, accountIDs []string) (*Status, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.evaluator.Evaluate(ctx, *b, asOf, accountIDs)
}

// StatusList evaluates every active budget for the user. A single budget
// failing to evaluate degrades that entry out of the response instead of
// failing the whole list.
func (s *Service) StatusList(ctx context.Context, userID int64, asOf civil.Date, accountIDs []string) ([]*Status, error) {
	budgets, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	statuses := make([]*Status, 0, len(budgets))
	for _, b := range budgets {
		if !b.IsActive {
			continue
		}
		status, err := s.evaluator.Evaluate(ctx, *b, asOf, accountIDs)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("budget_id", b.ID).Msg("budget evaluation failed, skipping")
			continue
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
