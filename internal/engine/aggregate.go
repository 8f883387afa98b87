package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwootten/easie/internal/models"
)

// Ledger is the read-only view of posted transactions the engine
// consumes. A zero `from` means "from the beginning of history"; the
// range is inclusive on both ends. Implementations return zero sums, not
// errors, for ranges with no entries.
type Ledger interface {
	SumEntries(from, to time.Time, kind models.Kind, category string) (decimal.Decimal, error)
}

// RuleSource lists the schedules eligible for expansion.
type RuleSource interface {
	ListActiveRules() ([]models.Rule, error)
}

// BudgetSource reads weekly category budgets. A category with no
// configured budget reports zero.
type BudgetSource interface {
	WeeklyBudget(category string) (decimal.Decimal, error)
}

// DayTotals is the income/expense aggregate for a date range.
type DayTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net is income minus expense.
func (t DayTotals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// Zero reports whether the range had no activity.
func (t DayTotals) Zero() bool {
	return t.Income.IsZero() && t.Expense.IsZero()
}

// Aggregate sums posted income and expense over [from, to], optionally
// filtered by category (empty string means all categories).
func Aggregate(l Ledger, from, to time.Time, category string) (DayTotals, error) {
	income, err := l.SumEntries(from, to, models.KindIncome, category)
	if err != nil {
		return DayTotals{}, err
	}
	expense, err := l.SumEntries(from, to, models.KindExpense, category)
	if err != nil {
		return DayTotals{}, err
	}
	return DayTotals{Income: income, Expense: expense}, nil
}
