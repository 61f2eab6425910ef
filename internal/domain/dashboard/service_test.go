package dashboard_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"finch/internal/domain/account"
	"finch/internal/domain/budget"
	"finch/internal/domain/dashboard"
	"finch/internal/domain/forecast"
	"finch/internal/domain/insight"
	"finch/internal/domain/ledger"
	"finch/internal/infrastructure/memory"
)

func day(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

type mockInsights struct {
	GenerateFunc func(ctx context.Context, accountIDs []string, asOf civil.Date, statuses []*budget.Status) ([]insight.Insight, error)
}

func (m *mockInsights) Generate(ctx context.Context, accountIDs []string, asOf civil.Date, statuses []*budget.Status) ([]insight.Insight, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, accountIDs, asOf, statuses)
	}
	return nil, nil
}

type mockForecast struct {
	ForecastFunc func(ctx context.Context, userID int64) ([]forecast.Point, error)
}

func (m *mockForecast) Forecast(ctx context.Context, userID int64) ([]forecast.Point, error) {
	if m.ForecastFunc != nil {
		return m.ForecastFunc(ctx, userID)
	}
	return nil, nil
}

type fixture struct {
	accounts *account.Service
	ledger   *ledger.Service
	budgets  *budget.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledgerSvc := ledger.NewService(memory.NewLedgerRepository())
	return &fixture{
		accounts: account.NewService(memory.NewAccountRepository(), ledgerSvc),
		ledger:   ledgerSvc,
		budgets:  budget.NewService(memory.NewBudgetRepository(), budget.NewEvaluator(ledgerSvc)),
	}
}

func (f *fixture) addAccount(t *testing.T, id string, balance float64) {
	t.Helper()
	_, err := f.accounts.UpsertAccount(context.Background(), account.UpsertParams{
		ID:              id,
		UserID:          1,
		ItemID:          "item-1",
		Name:            "Account " + id,
		AccountType:     "depository",
		Subtype:         "checking",
		InstitutionName: "First National",
		Currency:        "USD",
		CurrentBalance:  balance,
		SyncedAt:        time.Now(),
	})
	if err != nil {
		t.Fatalf("seeding account %s: %v", id, err)
	}
}

func (f *fixture) addTxns(t *testing.T, batch []ledger.UpsertParams) {
	t.Helper()
	if _, err := f.ledger.Ingest(context.Background(), batch); err != nil {
		t.Fatalf("seeding ledger: %v", err)
	}
}

func TestSummarizeMonthlyFigures(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "acc-1", 2500)
	f.addAccount(t, "acc-2", 500)
	now := time.Now()
	f.addTxns(t, []ledger.UpsertParams{
		// This month: 3000 income, 950 expenses across two categories.
		{ID: "t1", AccountID: "acc-1", Amount: -3000, Name: "ACME CORP PAYROLL", Date: day("2026-08-01"), SyncedAt: now},
		{ID: "t2", AccountID: "acc-1", Amount: 600, Name: "WHOLE FOODS MARKET", Date: day("2026-08-05"), SyncedAt: now},
		{ID: "t3", AccountID: "acc-2", Amount: 350, Name: "SHELL OIL 5771", Date: day("2026-08-12"), SyncedAt: now},
		// Last month: must not count.
		{ID: "t4", AccountID: "acc-1", Amount: 999, Name: "NETFLIX.COM", Date: day("2026-07-20"), SyncedAt: now},
	})

	svc := dashboard.NewService(f.accounts, f.ledger, f.budgets, nil, nil)
	summary, err := svc.Summarize(context.Background(), 1, day("2026-08-25"))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if summary.TotalBalance != 3000 {
		t.Errorf("totalBalance = %v, want 3000", summary.TotalBalance)
	}
	if summary.MonthlyIncome != 3000 {
		t.Errorf("monthlyIncome = %v, want 3000 (sign flipped)", summary.MonthlyIncome)
	}
	if summary.MonthlyExpenses != 950 {
		t.Errorf("monthlyExpenses = %v, want 950", summary.MonthlyExpenses)
	}
	if summary.MonthlySavings != 2050 {
		t.Errorf("monthlySavings = %v, want 2050", summary.MonthlySavings)
	}
	if len(summary.Accounts) != 2 {
		t.Errorf("accounts = %d, want 2", len(summary.Accounts))
	}
	if len(summary.Degraded) != 0 {
		t.Errorf("degraded = %v, want none", summary.Degraded)
	}
}

func TestSummarizeSpendingClosure(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "acc-1", 1000)
	now := time.Now()
	f.addTxns(t, []ledger.UpsertParams{
		{ID: "t1", AccountID: "acc-1", Amount: 300, Name: "WHOLE FOODS MARKET", Date: day("2026-08-05"), SyncedAt: now},
		{ID: "t2", AccountID: "acc-1", Amount: 200, Name: "SHELL OIL 5771", Date: day("2026-08-10"), SyncedAt: now},
		{ID: "t3", AccountID: "acc-1", Amount: 100, Name: "NETFLIX.COM", Date: day("2026-08-15"), SyncedAt: now},
		// A refund in the same category must not shrink the breakdown: the
		// slices are built from expense transactions only and have to sum
		// back to monthlyExpenses.
		{ID: "t4", AccountID: "acc-1", Amount: -50, Name: "NETFLIX.COM", Date: day("2026-08-16"), SyncedAt: now},
	})

	svc := dashboard.NewService(f.accounts, f.ledger, f.budgets, nil, nil)
	summary, err := svc.Summarize(context.Background(), 1, day("2026-08-25"))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if summary.MonthlyExpenses != 600 {
		t.Fatalf("monthlyExpenses = %v, want 600", summary.MonthlyExpenses)
	}
	if len(summary.SpendingByCategory) != 3 {
		t.Fatalf("categories = %d, want 3", len(summary.SpendingByCategory))
	}
	// Sorted by amount descending.
	if summary.SpendingByCategory[0].Category != "Food & Dining" || summary.SpendingByCategory[0].Amount != 300 {
		t.Errorf("top slice = %+v, want Food & Dining 300", summary.SpendingByCategory[0])
	}
	if summary.SpendingByCategory[2].Amount != 100 {
		t.Errorf("entertainment slice = %v, want the gross 100 despite the refund", summary.SpendingByCategory[2].Amount)
	}

	var sliceTotal, pctTotal float64
	for _, slice := range summary.SpendingByCategory {
		sliceTotal += slice.Amount
		pctTotal += slice.Percentage
	}
	if sliceTotal != summary.MonthlyExpenses {
		t.Errorf("slices sum to %v, want monthlyExpenses %v", sliceTotal, summary.MonthlyExpenses)
	}
	if math.Abs(pctTotal-100) > 1e-9 {
		t.Errorf("percentages sum to %v, want 100", pctTotal)
	}
}

func TestSummarizeRecentTransactions(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "acc-1", 1000)
	now := time.Now()
	batch := make([]ledger.UpsertParams, 0, 15)
	for i := 0; i < 15; i++ {
		batch = append(batch, ledger.UpsertParams{
			ID:        fmt.Sprintf("t%02d", i),
			AccountID: "acc-1",
			Amount:    10,
			Name:      "STARBUCKS #4521",
			Date:      day("2026-08-01").AddDays(i),
			SyncedAt:  now,
		})
	}
	f.addTxns(t, batch)

	svc := dashboard.NewService(f.accounts, f.ledger, f.budgets, nil, nil)
	summary, err := svc.Summarize(context.Background(), 1, day("2026-08-25"))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(summary.RecentTransactions) != 10 {
		t.Fatalf("recent = %d, want 10", len(summary.RecentTransactions))
	}
	// Newest first.
	if summary.RecentTransactions[0].Date != day("2026-08-15") {
		t.Errorf("first recent date = %s, want 2026-08-15", summary.RecentTransactions[0].Date)
	}
}

func TestSummarizeScopesToOwnAccounts(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "acc-1", 1000)
	now := time.Now()
	f.addTxns(t, []ledger.UpsertParams{
		{ID: "t1", AccountID: "acc-1", Amount: 100, Name: "CHIPOTLE 1190", Date: day("2026-08-05"), SyncedAt: now},
		// Another user's account, not linked to user 1.
		{ID: "t2", AccountID: "acc-other", Amount: 999, Name: "CHIPOTLE 1190", Date: day("2026-08-06"), SyncedAt: now},
	})

	svc := dashboard.NewService(f.accounts, f.ledger, f.budgets, nil, nil)
	summary, err := svc.Summarize(context.Background(), 1, day("2026-08-25"))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.MonthlyExpenses != 100 {
		t.Errorf("monthlyExpenses = %v, want 100 (foreign account excluded)", summary.MonthlyExpenses)
	}
}

func TestSummarizeIncludesBudgetsAndInsights(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "acc-1", 1000)
	now := time.Now()
	f.addTxns(t, []ledger.UpsertParams{
		{ID: "t1", AccountID: "acc-1", Amount: 450, Name: "WHOLE FOODS MARKET", Date: day("2026-08-05"), SyncedAt: now},
	})
	b := budget.Budget{
		Name:           "Food",
		Category:       "Food & Dining",
		BudgetLimit:    500,
		PeriodType:     budget.Monthly,
		StartDate:      day("2026-08-01"),
		EndDate:        day("2026-08-31"),
		AlertThreshold: 80,
		UserID:         1,
	}
	if _, err := f.budgets.Create(context.Background(), &b); err != nil {
		t.Fatalf("creating budget: %v", err)
	}

	insights := &mockInsights{
		GenerateFunc: func(ctx context.Context, accountIDs []string, asOf civil.Date, statuses []*budget.Status) ([]insight.Insight, error) {
			if len(statuses) != 1 {
				t.Errorf("insight generator received %d statuses, want 1", len(statuses))
			}
			return []insight.Insight{{ID: "i1", Kind: insight.KindAlert, Title: "t", Description: "d"}}, nil
		},
	}
	fc := &mockForecast{
		ForecastFunc: func(ctx context.Context, userID int64) ([]forecast.Point, error) {
			return []forecast.Point{{Category: "Food & Dining", ForecastAmount: 480, Trend: "stable"}}, nil
		},
	}

	svc := dashboard.NewService(f.accounts, f.ledger, f.budgets, insights, fc)
	summary, err := svc.Summarize(context.Background(), 1, day("2026-08-25"))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(summary.Budgets) != 1 {
		t.Fatalf("budgets = %d, want 1", len(summary.Budgets))
	}
	if !summary.Budgets[0].ShouldAlert {
		t.Error("budget at 90% of an 80% threshold should alert")
	}
	if len(summary.Insights) != 1 {
		t.Errorf("insights = %d, want 1", len(summary.Insights))
	}
	if len(summary.Forecast) != 1 {
		t.Errorf("forecast points = %d, want 1", len(summary.Forecast))
	}
}

func TestSummarizeDegradesOptionalSections(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "acc-1", 1000)

	insights := &mockInsights{
		GenerateFunc: func(ctx context.Context, accountIDs []string, asOf civil.Date, statuses []*budget.Status) ([]insight.Insight, error) {
			return nil, errors.New("model unavailable")
		},
	}
	fc := &mockForecast{
		ForecastFunc: func(ctx context.Context, userID int64) ([]forecast.Point, error) {
			return nil, errors.New("service down")
		},
	}

	svc := dashboard.NewService(f.accounts, f.ledger, f.budgets, insights, fc)
	summary, err := svc.Summarize(context.Background(), 1, day("2026-08-25"))
	if err != nil {
		t.Fatalf("Summarize() must not fail on optional sections, got %v", err)
	}
	if len(summary.Degraded) != 2 {
		t.Fatalf("degraded = %v, want [insights forecast]", summary.Degraded)
	}
	if summary.Degraded[0] != "insights" || summary.Degraded[1] != "forecast" {
		t.Errorf("degraded = %v, want [insights forecast]", summary.Degraded)
	}
	if summary.TotalBalance != 1000 {
		t.Errorf("core figures must survive degradation, totalBalance = %v", summary.TotalBalance)
	}
}

func TestSummarizeEmptyUser(t *testing.T) {
	f := newFixture(t)
	svc := dashboard.NewService(f.accounts, f.ledger, f.budgets, nil, nil)

	summary, err := svc.Summarize(context.Background(), 7, day("2026-08-25"))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.TotalBalance != 0 || summary.MonthlyIncome != 0 || summary.MonthlyExpenses != 0 {
		t.Errorf("empty user summary carries figures: %+v", summary)
	}
	if len(summary.SpendingByCategory) != 0 || len(summary.RecentTransactions) != 0 {
		t.Errorf("empty user summary carries sections: %+v", summary)
	}
}
