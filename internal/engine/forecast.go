package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwootten/easie/internal/dates"
	"github.com/mwootten/easie/internal/models"
)

// ForecastWindowDays is how far the negative-balance walk looks ahead.
const ForecastWindowDays = 90

// safetyMargin is the weekly-budget headroom required for a green
// verdict, in currency units.
var safetyMargin = decimal.NewFromInt(20)

// Forecaster simulates a hypothetical one-time purchase against the
// projected timeline.
type Forecaster struct {
	ledger  Ledger
	rules   RuleSource
	budgets BudgetSource
	now     func() time.Time
}

// NewForecaster builds a forecaster over the given stores.
func NewForecaster(ledger Ledger, rules RuleSource, budgets BudgetSource) *Forecaster {
	return NewForecasterAt(ledger, rules, budgets, time.Now)
}

// NewForecasterAt is NewForecaster with an explicit clock, for callers
// that pin "today".
func NewForecasterAt(ledger Ledger, rules RuleSource, budgets BudgetSource, now func() time.Time) *Forecaster {
	return &Forecaster{ledger: ledger, rules: rules, budgets: budgets, now: now}
}

// Forecast answers two independent questions about buying `price` worth
// of `category` on `target`:
//
//  1. Does it fit this week's budget? Green needs the remainder to clear
//     the safety margin, yellow is merely non-negative, red is over.
//  2. Does the projected balance cross below zero within the next 90
//     days? The walk starts from today's actual running balance and
//     models only future scheduled occurrences plus the purchase itself;
//     posted history is already baked into the starting value.
//
// A target before today is treated as today. The two verdicts are
// intentionally independent: green this week can still go negative.
func (f *Forecaster) Forecast(price decimal.Decimal, category string, target time.Time, startingBalance decimal.Decimal) (*models.ForecastReport, error) {
	today := dates.Day(f.now())
	target = dates.Day(target)
	if target.Before(today) {
		target = today
	}

	report := &models.ForecastReport{}

	// Tier one: this week's budget.
	weekStart, weekEnd := dates.WeekBounds(today)
	budget, err := f.budgets.WeeklyBudget(category)
	if err != nil {
		return nil, fmt.Errorf("weekly budget for %q: %w", category, err)
	}
	spent, err := f.ledger.SumEntries(weekStart, weekEnd, models.KindExpense, category)
	if err != nil {
		return nil, fmt.Errorf("spent this week for %q: %w", category, err)
	}
	remainder := budget.Sub(spent).Sub(price)
	report.WeeklyBudget = budget
	report.SpentThisWeek = spent
	report.RemainderAfter = remainder
	switch {
	case remainder.GreaterThanOrEqual(safetyMargin):
		report.WeeklyStatus = models.VerdictGreen
	case remainder.GreaterThanOrEqual(decimal.Zero):
		report.WeeklyStatus = models.VerdictYellow
	default:
		report.WeeklyStatus = models.VerdictRed
	}

	// Tier two: the 90-day walk.
	running, err := NewProjector(f.ledger, f.rules).BalanceAsOf(today, startingBalance)
	if err != nil {
		return nil, err
	}
	horizon := today.AddDate(0, 0, ForecastWindowDays)

	rules, err := f.rules.ListActiveRules()
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	delta := make(map[time.Time]decimal.Decimal)
	for _, o := range ExpandAll(rules, horizon) {
		if o.Date.Before(today) {
			continue
		}
		if o.Kind == models.KindIncome {
			delta[o.Date] = delta[o.Date].Add(o.Amount)
		} else {
			delta[o.Date] = delta[o.Date].Sub(o.Amount)
		}
	}
	delta[target] = delta[target].Sub(price)

	report.MinBalance = running
	report.MinBalanceDay = today
	for d := today; !d.After(horizon); d = d.AddDate(0, 0, 1) {
		running = running.Add(delta[d])
		if running.IsNegative() && report.FirstNegativeDay == nil {
			day := d
			report.FirstNegativeDay = &day
			report.GoesNegative = true
		}
		if running.LessThan(report.MinBalance) {
			report.MinBalance = running
			report.MinBalanceDay = d
		}
	}
	return report, nil
}
