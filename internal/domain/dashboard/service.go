package dashboard

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"finch/internal/domain/account"
	"finch/internal/domain/budget"
	"finch/internal/domain/forecast"
	"finch/internal/domain/insight"
	"finch/internal/domain/ledger"
	"finch/internal/shared/logging"
)

// AccountSource lists a user's linked accounts. The account service
// satisfies it.
type AccountSource interface {
	ListAccountsByUserID(ctx context.Context, userID int64) ([]*account.Account, error)
}

// TransactionSource is the slice of the ledger the aggregator reads.
type TransactionSource interface {
	Query(ctx context.Context, params ledger.QueryParams) ([]*ledger.Transaction, error)
}

// BudgetSource evaluates a user's budgets. The budget service satisfies it.
type BudgetSource interface {
	StatusList(ctx context.Context, userID int64, asOf civil.Date, accountIDs []string) ([]*budget.Status, error)
}

// InsightSource generates insights for the summary. The insight generator
// satisfies it.
type InsightSource interface {
	Generate(ctx context.Context, accountIDs []string, asOf civil.Date, statuses []*budget.Status) ([]insight.Insight, error)
}

// Service assembles the dashboard summary. Accounts and the ledger are
// load-bearing; budgets, insights and forecast degrade section by section.
type Service struct {
	accounts AccountSource
	ledger   TransactionSource
	budgets  BudgetSource
	insights InsightSource   // nil disables the section
	forecast forecast.Client // nil disables the section
}

func NewService(accounts AccountSource, txns TransactionSource, budgets BudgetSource, insights InsightSource, fc forecast.Client) *Service {
	return &Service{
		accounts: accounts,
		ledger:   txns,
		budgets:  budgets,
		insights: insights,
		forecast: fc,
	}
}

func monthBounds(asOf civil.Date) (start, end civil.Date) {
	start = civil.Date{Year: asOf.Year, Month: asOf.Month, Day: 1}
	end = civil.DateOf(start.In(time.UTC).AddDate(0, 1, -1))
	return start, end
}

// Summarize builds the dashboard for userID's current calendar month, where
// "current" is the month containing asOf.
func (s *Service) Summarize(ctx context.Context, userID int64, asOf civil.Date) (*Summary, error) {
	log := logging.FromContext(ctx)
	summary := &Summary{AsOf: asOf}

	accounts, err := s.accounts.ListAccountsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary.Accounts = accounts
	accountIDs := make([]string, 0, len(accounts))
	for _, a := range accounts {
		summary.TotalBalance += a.CurrentBalance
		accountIDs = append(accountIDs, a.ID)
	}
	if len(accountIDs) == 0 {
		// An empty account filter would read the whole ledger.
		summary.SpendingByCategory = []CategorySpend{}
		summary.RecentTransactions = []*ledger.Transaction{}
		return summary, nil
	}

	start, end := monthBounds(asOf)
	monthTxns, err := s.ledger.Query(ctx, ledger.QueryParams{
		AccountIDs: accountIDs,
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		return nil, err
	}

	// Income arrives with a negative sign; flip it so both figures read as
	// positive magnitudes.
	byCategory := make(map[string]float64)
	for _, t := range monthTxns {
		if t.Amount > 0 {
			summary.MonthlyExpenses += t.Amount
			byCategory[string(ledger.ResolveCategory(t))] += t.Amount
		} else {
			summary.MonthlyIncome += -t.Amount
		}
	}
	summary.MonthlySavings = summary.MonthlyIncome - summary.MonthlyExpenses

	// Category slices cover expense transactions only, so the breakdown sums
	// to monthlyExpenses. Refunds reduce budget spend, not the breakdown.
	summary.SpendingByCategory = make([]CategorySpend, 0, len(byCategory))
	for cat, amount := range byCategory {
		slice := CategorySpend{Category: cat, Amount: amount}
		if summary.MonthlyExpenses > 0 {
			slice.Percentage = amount / summary.MonthlyExpenses * 100
		}
		summary.SpendingByCategory = append(summary.SpendingByCategory, slice)
	}
	sort.Slice(summary.SpendingByCategory, func(i, j int) bool {
		a, b := summary.SpendingByCategory[i], summary.SpendingByCategory[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Category < b.Category
	})

	recent, err := s.ledger.Query(ctx, ledger.QueryParams{
		AccountIDs: accountIDs,
		Limit:      recentLimit,
	})
	if err != nil {
		return nil, err
	}
	summary.RecentTransactions = recent

	statuses, err := s.budgets.StatusList(ctx, userID, asOf, accountIDs)
	if err != nil {
		log.Warn().Err(err).Msg("budget section failed, degrading")
		summary.Degraded = append(summary.Degraded, "budgets")
	} else {
		summary.Budgets = statuses
	}

	if s.insights != nil {
		insights, err := s.insights.Generate(ctx, accountIDs, asOf, statuses)
		if err != nil {
			log.Warn().Err(err).Msg("insight section failed, degrading")
			summary.Degraded = append(summary.Degraded, "insights")
		} else {
			summary.Insights = insights
		}
	}

	if s.forecast != nil {
		points, err := s.forecast.Forecast(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Msg("forecast section failed, degrading")
			summary.Degraded = append(summary.Degraded, "forecast")
		} else {
			summary.Forecast = points
		}
	}

	return summary, nil
}
