package budget_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"finch/internal/domain/budget"
	"finch/internal/domain/ledger"
	"finch/internal/infrastructure/memory"
)

func newBudgetService(t *testing.T) *budget.Service {
	t.Helper()
	evaluator := budget.NewEvaluator(ledger.NewService(memory.NewLedgerRepository()))
	return budget.NewService(memory.NewBudgetRepository(), evaluator)
}

func TestServiceCreateValidation(t *testing.T) {
	svc := newBudgetService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*budget.Budget)
	}{
		{"missing name", func(b *budget.Budget) { b.Name = "" }},
		{"missing category", func(b *budget.Budget) { b.Category = "" }},
		{"zero limit", func(b *budget.Budget) { b.BudgetLimit = 0 }},
		{"negative limit", func(b *budget.Budget) { b.BudgetLimit = -100 }},
		{"threshold above 100", func(b *budget.Budget) { b.AlertThreshold = 120 }},
		{"negative threshold", func(b *budget.Budget) { b.AlertThreshold = -1 }},
		{"unknown period type", func(b *budget.Budget) { b.PeriodType = "quarterly" }},
		{"end before start", func(b *budget.Budget) { b.EndDate = day("2026-07-01") }},
		{"end equals start", func(b *budget.Budget) { b.EndDate = b.StartDate }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := foodBudget()
			tt.mutate(&b)
			_, err := svc.Create(ctx, &b)
			if !budget.IsValidationError(err) {
				t.Errorf("Create() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestServiceCreateProviderTaxonomyCategory(t *testing.T) {
	// Provider category labels are open-ended and resolve verbatim, so a
	// budget may track one the classifier does not know.
	svc := newBudgetService(t)
	b := foodBudget()
	b.Category = "Travel"
	created, err := svc.Create(context.Background(), &b)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Category != "Travel" {
		t.Errorf("category = %q, want Travel", created.Category)
	}
}

func TestServiceCRUD(t *testing.T) {
	svc := newBudgetService(t)
	ctx := context.Background()

	b := foodBudget()
	created, err := svc.Create(ctx, &b)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}
	if !created.IsActive {
		t.Error("new budget should be active")
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != b.Name {
		t.Errorf("GetByID().Name = %q, want %q", got.Name, b.Name)
	}

	originalCreatedAt := created.CreatedAt
	time.Sleep(time.Millisecond)
	got.BudgetLimit = 600
	updated, err := svc.Update(ctx, got)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.BudgetLimit != 600 {
		t.Errorf("Update().BudgetLimit = %v, want 600", updated.BudgetLimit)
	}
	if !updated.CreatedAt.Equal(originalCreatedAt) {
		t.Error("Update() must preserve CreatedAt")
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, budget.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestServiceNotFound(t *testing.T) {
	svc := newBudgetService(t)
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, "nope"); !errors.Is(err, budget.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "nope"); !errors.Is(err, budget.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	missing := foodBudget()
	missing.ID = "nope"
	if _, err := svc.Update(ctx, &missing); !errors.Is(err, budget.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestServiceStatusListSkipsInactive(t *testing.T) {
	svc := newBudgetService(t)
	ctx := context.Background()

	active := foodBudget()
	if _, err := svc.Create(ctx, &active); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	paused := foodBudget()
	paused.Name = "Paused budget"
	created, err := svc.Create(ctx, &paused)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	created.IsActive = false
	if _, err := svc.Update(ctx, created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	statuses, err := svc.StatusList(ctx, 1, day("2026-08-15"), nil)
	if err != nil {
		t.Fatalf("StatusList() error = %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("StatusList() returned %d statuses, want 1", len(statuses))
	}
	if statuses[0].Budget.Name != "Groceries & eating out" {
		t.Errorf("StatusList() kept %q, want the active budget", statuses[0].Budget.Name)
	}
}
