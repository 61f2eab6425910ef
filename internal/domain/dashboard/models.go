package dashboard

import (
	"cloud.google.com/go/civil"

	"finch/internal/domain/account"
	"finch/internal/domain/budget"
	"finch/internal/domain/forecast"
	"finch/internal/domain/insight"
	"finch/internal/domain/ledger"
)

// recentLimit is how many transactions the dashboard surfaces.
const recentLimit = 10

// CategorySpend is one slice of the monthly spending breakdown. Percentages
// across a summary sum to 100 whenever any spending exists.
type CategorySpend struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// Summary is the aggregated dashboard view for one user's current calendar
// month. Optional sections that failed to load appear in Degraded instead of
// failing the whole summary.
type Summary struct {
	AsOf               civil.Date            `json:"asOf"`
	TotalBalance       float64               `json:"totalBalance"`
	MonthlyIncome      float64               `json:"monthlyIncome"`
	MonthlyExpenses    float64               `json:"monthlyExpenses"`
	MonthlySavings     float64               `json:"monthlySavings"`
	SpendingByCategory []CategorySpend       `json:"spendingByCategory"`
	RecentTransactions []*ledger.Transaction `json:"recentTransactions"`
	Accounts           []*account.Account    `json:"accounts"`
	Budgets            []*budget.Status      `json:"budgets"`
	Insights           []insight.Insight     `json:"insights"`
	Forecast           []forecast.Point      `json:"forecast"`
	Degraded           []string              `json:"degraded,omitempty"`
}
