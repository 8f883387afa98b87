package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwootten/easie/internal/dates"
	"github.com/mwootten/easie/internal/models"
)

// Projector merges posted ledger activity with scheduled occurrences
// into a running balance series.
type Projector struct {
	ledger Ledger
	rules  RuleSource
}

// NewProjector builds a projector over a ledger snapshot and rule set.
func NewProjector(ledger Ledger, rules RuleSource) *Projector {
	return &Projector{ledger: ledger, rules: rules}
}

// Project returns one BalancePoint per calendar day in [start, end].
//
// The running value seeds from startingBalance plus all posted net
// activity strictly before start (the rollover term), so any sub-range
// can be projected without walking the full history day by day. Days
// with no activity repeat the prior running value. Chunking a range at
// any split point yields the same running values at the boundary.
func (p *Projector) Project(start, end time.Time, startingBalance decimal.Decimal) ([]models.BalancePoint, error) {
	start = dates.Day(start)
	end = dates.Day(end)
	if end.Before(start) {
		return nil, nil
	}

	prior, err := Aggregate(p.ledger, time.Time{}, start.AddDate(0, 0, -1), "")
	if err != nil {
		return nil, fmt.Errorf("rollover aggregate: %w", err)
	}
	running := startingBalance.Add(prior.Net())

	rules, err := p.rules.ListActiveRules()
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	scheduled := make(map[time.Time]DayTotals)
	for _, o := range ExpandAll(rules, end) {
		if o.Date.Before(start) {
			continue
		}
		day := scheduled[o.Date]
		if o.Kind == models.KindIncome {
			day.Income = day.Income.Add(o.Amount)
		} else {
			day.Expense = day.Expense.Add(o.Amount)
		}
		scheduled[o.Date] = day
	}

	var points []models.BalancePoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		posted, err := Aggregate(p.ledger, d, d, "")
		if err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", d.Format("2006-01-02"), err)
		}
		sched := scheduled[d]
		income := posted.Income.Add(sched.Income)
		expense := posted.Expense.Add(sched.Expense)
		running = running.Add(income).Sub(expense)
		points = append(points, models.BalancePoint{
			Date:    d,
			Income:  income,
			Expense: expense,
			Running: running,
		})
	}
	return points, nil
}

// BalanceAsOf is the running balance through the end of day d: starting
// balance plus all posted net activity up to and including d.
func (p *Projector) BalanceAsOf(d time.Time, startingBalance decimal.Decimal) (decimal.Decimal, error) {
	total, err := Aggregate(p.ledger, time.Time{}, dates.Day(d), "")
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance aggregate: %w", err)
	}
	return startingBalance.Add(total.Net()), nil
}
