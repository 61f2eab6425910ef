package insight

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"finch/internal/domain/budget"
	"finch/internal/domain/ledger"
	"finch/internal/shared/logging"
)

// Change thresholds for month-over-month comparisons, in percent. Moves
// smaller than changeCutoff are noise and produce nothing.
const (
	changeCutoff   = 10.0
	anomalyCutoff  = 50.0
	dominantShare  = 40.0
	recurringCount = 3
)

// TransactionSource is the slice of the ledger the generator reads.
type TransactionSource interface {
	Query(ctx context.Context, params ledger.QueryParams) ([]*ledger.Transaction, error)
}

// Narrator optionally rewrites insight descriptions into friendlier prose.
// Implementations call an external model; failures must degrade, never
// propagate — the rule-based text is always a valid fallback.
type Narrator interface {
	Narrate(ctx context.Context, insights []Insight) ([]Insight, error)
}

// Generator produces insights by comparing the current calendar month's
// spending against the previous month's, plus budget alert passthrough.
type Generator struct {
	source   TransactionSource
	narrator Narrator // nil disables narration
}

func NewGenerator(source TransactionSource, narrator Narrator) *Generator {
	return &Generator{source: source, narrator: narrator}
}

func monthBounds(asOf civil.Date) (start, end civil.Date) {
	start = civil.Date{Year: asOf.Year, Month: asOf.Month, Day: 1}
	end = civil.DateOf(start.In(time.UTC).AddDate(0, 1, -1))
	return start, end
}

// spendingByCategory sums expense amounts (positive sign) per resolved
// category. Refund rows net against their category.
func spendingByCategory(txns []*ledger.Transaction) map[string]float64 {
	totals := make(map[string]float64)
	for _, t := range txns {
		label := string(ledger.ResolveCategory(t))
		totals[label] += t.Amount
	}
	for k, v := range totals {
		if v <= 0 {
			delete(totals, k)
		}
	}
	return totals
}

// Generate builds the month-over-month insight set for asOf. Budget statuses,
// when provided, contribute alert insights for budgets past their threshold.
func (g *Generator) Generate(ctx context.Context, accountIDs []string, asOf civil.Date, statuses []*budget.Status) ([]Insight, error) {
	curStart, curEnd := monthBounds(asOf)
	prevStart, prevEnd := monthBounds(civil.DateOf(curStart.In(time.UTC).AddDate(0, -1, 0)))

	current, err := g.source.Query(ctx, ledger.QueryParams{AccountIDs: accountIDs, StartDate: curStart, EndDate: curEnd})
	if err != nil {
		return nil, err
	}
	previous, err := g.source.Query(ctx, ledger.QueryParams{AccountIDs: accountIDs, StartDate: prevStart, EndDate: prevEnd})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	curSpend := spendingByCategory(current)
	prevSpend := spendingByCategory(previous)
	insights := make([]Insight, 0)

	// Per-category month-over-month moves.
	categories := make([]string, 0, len(curSpend))
	for cat := range curSpend {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		cur := curSpend[cat]
		prev, hadPrev := prevSpend[cat]
		if !hadPrev || prev == 0 {
			continue
		}
		change := (cur - prev) / prev * 100
		switch {
		case change >= anomalyCutoff:
			insights = append(insights, Insight{
				ID:          uuid.NewString(),
				Kind:        KindAnomaly,
				Title:       fmt.Sprintf("Unusual spike in %s", cat),
				Description: fmt.Sprintf("You spent %.2f on %s this month, up %.0f%% from %.2f last month.", cur, cat, change, prev),
				Category:    cat,
				Amount:      cur,
				ChangePct:   change,
				GeneratedAt: now,
			})
		case change >= changeCutoff:
			insights = append(insights, Insight{
				ID:          uuid.NewString(),
				Kind:        KindTrend,
				Title:       fmt.Sprintf("%s spending is up", cat),
				Description: fmt.Sprintf("%s is running %.0f%% above last month (%.2f vs %.2f).", cat, change, cur, prev),
				Category:    cat,
				Amount:      cur,
				ChangePct:   change,
				GeneratedAt: now,
			})
		case change <= -changeCutoff:
			insights = append(insights, Insight{
				ID:          uuid.NewString(),
				Kind:        KindPositive,
				Title:       fmt.Sprintf("%s spending is down", cat),
				Description: fmt.Sprintf("Nice work: %s is %.0f%% below last month (%.2f vs %.2f).", cat, -change, cur, prev),
				Category:    cat,
				Amount:      cur,
				ChangePct:   change,
				GeneratedAt: now,
			})
		}
	}

	// One category dominating the month's spend.
	var total float64
	for _, v := range curSpend {
		total += v
	}
	if total > 0 {
		for _, cat := range categories {
			share := curSpend[cat] / total * 100
			if share >= dominantShare {
				insights = append(insights, Insight{
					ID:          uuid.NewString(),
					Kind:        KindRecommendation,
					Title:       fmt.Sprintf("%s dominates your spending", cat),
					Description: fmt.Sprintf("%s makes up %.0f%% of this month's spending. Consider setting a budget for it.", cat, share),
					Category:    cat,
					Amount:      curSpend[cat],
					GeneratedAt: now,
				})
			}
		}
	}

	// Recurring merchants.
	merchantCounts := make(map[string]int)
	merchantTotals := make(map[string]float64)
	for _, t := range current {
		if t.Amount <= 0 {
			continue
		}
		merchantCounts[t.Name]++
		merchantTotals[t.Name] += t.Amount
	}
	merchants := make([]string, 0, len(merchantCounts))
	for name, count := range merchantCounts {
		if count >= recurringCount {
			merchants = append(merchants, name)
		}
	}
	sort.Strings(merchants)
	for _, name := range merchants {
		insights = append(insights, Insight{
			ID:          uuid.NewString(),
			Kind:        KindPattern,
			Title:       fmt.Sprintf("Frequent charges from %s", name),
			Description: fmt.Sprintf("%d charges from %s this month totalling %.2f.", merchantCounts[name], name, merchantTotals[name]),
			Amount:      merchantTotals[name],
			GeneratedAt: now,
		})
	}

	// Budget alert passthrough.
	for _, s := range statuses {
		if s == nil || !s.ShouldAlert {
			continue
		}
		title := fmt.Sprintf("Budget %q is at %.0f%%", s.Budget.Name, s.UtilizationPercentage)
		desc := fmt.Sprintf("You've used %.2f of the %.2f limit for %s.", s.SpentAmount, s.Budget.BudgetLimit, s.Budget.Category)
		if s.IsOverBudget {
			title = fmt.Sprintf("Budget %q is over its limit", s.Budget.Name)
			desc = fmt.Sprintf("Spending on %s is %.2f against a %.2f limit.", s.Budget.Category, s.SpentAmount, s.Budget.BudgetLimit)
		}
		insights = append(insights, Insight{
			ID:          uuid.NewString(),
			Kind:        KindAlert,
			Title:       title,
			Description: desc,
			Category:    s.Budget.Category,
			Amount:      s.SpentAmount,
			GeneratedAt: now,
		})
	}

	if g.narrator != nil && len(insights) > 0 {
		narrated, err := g.narrator.Narrate(ctx, insights)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("insight narration failed, using rule-based text")
		} else {
			insights = narrated
		}
	}
	return insights, nil
}
