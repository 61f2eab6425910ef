package budget

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"finch/internal/domain/ledger"
)

// TransactionSource is the slice of the ledger the evaluator reads. The
// ledger service satisfies it.
type TransactionSource interface {
	Query(ctx context.Context, params ledger.QueryParams) ([]*ledger.Transaction, error)
}

// Evaluator derives budget statuses from the transaction ledger. It holds no
// state of its own; Evaluate is deterministic over its inputs.
type Evaluator struct {
	source TransactionSource
}

func NewEvaluator(source TransactionSource) *Evaluator {
	return &Evaluator{source: source}
}

// shift moves a date forward by n periods, counting from the date itself so
// month-end anchors clamp without drifting: Jan 31 shifted 1 month is Feb 28,
// shifted 2 months is Mar 31.
func shift(d civil.Date, p PeriodType, n int) civil.Date {
	switch p {
	case Weekly:
		return d.AddDays(7 * n)
	case Monthly:
		return addMonthsClamped(d, n)
	case Yearly:
		return addMonthsClamped(d, 12*n)
	}
	return d
}

// addMonthsClamped adds months keeping the day of month, clamped to the last
// day of the target month.
func addMonthsClamped(d civil.Date, months int) civil.Date {
	m := int(d.Month) - 1 + months
	y := d.Year + m/12
	m %= 12
	if m < 0 {
		m += 12
		y--
	}
	month := time.Month(m + 1)
	day := d.Day
	lastDay := time.Date(y, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return civil.Date{Year: y, Month: month, Day: day}
}

// activePeriod walks periods forward from the stored first period until one
// covers asOf. Both bounds shift from their stored anchors, so consecutive
// periods never overlap. The second return is the zero-based period index;
// the third is false when asOf falls past the final period of a non-rollover
// budget.
func activePeriod(b Budget, asOf civil.Date) (start, end civil.Date, index int, live bool) {
	start, end = b.StartDate, b.EndDate
	for asOf.After(end) {
		if !b.AutoRollover {
			return start, end, index, false
		}
		index++
		start = shift(b.StartDate, b.PeriodType, index)
		end = shift(b.EndDate, b.PeriodType, index)
	}
	return start, end, index, true
}

// Evaluate computes the status of a budget at asOf. Spending is the signed
// sum of matched transactions, so refunds shrink it. A budget whose limit is
// zero (possible only on rows predating validation) reports zero utilization
// and alerts on any spend at all, never a division by zero.
func (e *Evaluator) Evaluate(ctx context.Context, b Budget, asOf civil.Date, accountIDs []string) (*Status, error) {
	status := &Status{Budget: b}

	if asOf.Before(b.StartDate) {
		status.State = StateUpcoming
		status.PeriodStart, status.PeriodEnd = b.StartDate, b.EndDate
		status.RemainingAmount = b.BudgetLimit
		return status, nil
	}

	start, end, index, live := activePeriod(b, asOf)
	status.PeriodStart, status.PeriodEnd = start, end
	status.PeriodIndex = index
	if !live {
		// Terminal: the window closed and the budget does not roll over.
		// Figures stay zero rather than extrapolating a dead period.
		status.State = StateExpired
		return status, nil
	}
	if index > 0 {
		status.State = StateRolledOver
	} else {
		status.State = StateActive
	}

	txns, err := e.source.Query(ctx, ledger.QueryParams{
		AccountIDs: accountIDs,
		Category:   b.Category,
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		return nil, err
	}

	var spent float64
	for _, t := range txns {
		spent += t.Amount
	}

	status.SpentAmount = spent
	status.RemainingAmount = b.BudgetLimit - spent
	status.IsOverBudget = spent > b.BudgetLimit
	if b.BudgetLimit > 0 {
		status.UtilizationPercentage = spent * 100 / b.BudgetLimit
		status.ShouldAlert = status.UtilizationPercentage >= b.AlertThreshold
	} else {
		status.ShouldAlert = spent > 0
	}
	return status, nil
}
