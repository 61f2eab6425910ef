package budget

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// PeriodType is the recurrence unit of a budget period.
type PeriodType string

const (
	Weekly  PeriodType = "weekly"
	Monthly PeriodType = "monthly"
	Yearly  PeriodType = "yearly"
)

// IsValidPeriodType reports whether p is a supported period type.
func IsValidPeriodType(p PeriodType) bool {
	switch p {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// State describes where a budget sits in calendar time relative to asOf.
// Transitions are pure functions of asOf; nothing is stored.
type State string

const (
	StateUpcoming   State = "upcoming"
	StateActive     State = "active"
	StateRolledOver State = "rolled_over"
	StateExpired    State = "expired"
)

// Domain errors
var ErrNotFound = errors.New("budget not found")

// ValidationError reports a malformed budget definition. It is surfaced to
// the caller at creation/update time, never silently corrected.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid budget: %s %s", e.Field, e.Msg)
}

// IsValidationError reports whether err is a budget validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Budget is a user-defined spending constraint. The evaluator never mutates
// it; all derived figures live on Status and are computed on read.
type Budget struct {
	ID             string     `json:"id"`
	UserID         int64      `json:"userId"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	BudgetLimit    float64    `json:"budgetLimit"`
	PeriodType     PeriodType `json:"periodType"`
	StartDate      civil.Date `json:"startDate"`
	EndDate        civil.Date `json:"endDate"` // end of the first period, inclusive
	AlertThreshold float64    `json:"alertThreshold"` // percent of limit, 0-100
	AutoRollover   bool       `json:"autoRollover"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Validate enforces the definition invariants: a positive limit, an alert
// threshold within [0,100], and a non-empty first period. Category is only
// required to be non-empty: besides the classifier's closed label set,
// budgets may track provider taxonomy labels, which are open-ended and
// resolved verbatim.
func (b Budget) Validate() error {
	if b.Name == "" {
		return &ValidationError{Field: "name", Msg: "is required"}
	}
	if b.Category == "" {
		return &ValidationError{Field: "category", Msg: "is required"}
	}
	if b.BudgetLimit <= 0 {
		return &ValidationError{Field: "budgetLimit", Msg: "must be positive"}
	}
	if b.AlertThreshold < 0 || b.AlertThreshold > 100 {
		return &ValidationError{Field: "alertThreshold", Msg: "must be between 0 and 100"}
	}
	if !IsValidPeriodType(b.PeriodType) {
		return &ValidationError{Field: "periodType", Msg: "must be weekly, monthly or yearly"}
	}
	if !b.StartDate.IsValid() || !b.EndDate.IsValid() {
		return &ValidationError{Field: "startDate", Msg: "and endDate are required"}
	}
	if !b.StartDate.Before(b.EndDate) {
		return &ValidationError{Field: "endDate", Msg: "must be after startDate"}
	}
	return nil
}

// Status is the evaluated projection of a budget at a point in time. It is a
// pure function of (budget, asOf, ledger): evaluating twice over the same
// inputs yields identical output.
type Status struct {
	Budget Budget `json:"budget"`
	State  State  `json:"state"`

	// Active period bounds (inclusive). For expired budgets these are the
	// final period the budget covered.
	PeriodStart civil.Date `json:"periodStart"`
	PeriodEnd   civil.Date `json:"periodEnd"`
	PeriodIndex int        `json:"periodIndex"` // 0 = the stored first period

	SpentAmount           float64 `json:"spentAmount"`
	RemainingAmount       float64 `json:"remainingAmount"`
	UtilizationPercentage float64 `json:"utilizationPercentage"`
	IsOverBudget          bool    `json:"isOverBudget"`
	ShouldAlert           bool    `json:"shouldAlert"`
}
