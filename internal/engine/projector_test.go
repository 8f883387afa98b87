package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwootten/easie/internal/dates"
	"github.com/mwootten/easie/internal/models"
)

// fakeLedger sums an in-memory transaction slice the way the postgres
// store does: inclusive bounds, zero time means unbounded.
type fakeLedger struct {
	txs []models.Transaction
}

func (f *fakeLedger) SumEntries(from, to time.Time, kind models.Kind, category string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, tx := range f.txs {
		day := dates.Day(tx.Date)
		if !from.IsZero() && day.Before(dates.Day(from)) {
			continue
		}
		if !to.IsZero() && day.After(dates.Day(to)) {
			continue
		}
		if kind != "" && tx.Kind != kind {
			continue
		}
		if category != "" && tx.Category != category {
			continue
		}
		sum = sum.Add(tx.Amount)
	}
	return sum, nil
}

type fakeRules struct {
	rules []models.Rule
}

func (f *fakeRules) ListActiveRules() ([]models.Rule, error) {
	return f.rules, nil
}

type fakeBudgets map[string]decimal.Decimal

func (f fakeBudgets) WeeklyBudget(category string) (decimal.Decimal, error) {
	return f[category], nil
}

func tx(t *testing.T, date string, kind models.Kind, amount int64, category string) models.Transaction {
	t.Helper()
	return models.Transaction{
		Date:     mustDate(t, date),
		Kind:     kind,
		Amount:   decimal.NewFromInt(amount),
		Category: category,
	}
}

func TestProjectSingleOccurrenceMidRange(t *testing.T) {
	// Starting balance 100, no posted activity, one income occurrence of
	// 50 on day 5 of a 10-day projection: running is 100 for days 1-4
	// and 150 from day 5 on.
	rules := &fakeRules{rules: []models.Rule{{
		ID:        1,
		Kind:      models.KindIncome,
		Amount:    decimal.NewFromInt(50),
		Frequency: models.OneTime,
		StartDate: mustDate(t, "2025-03-05"),
		Active:    true,
	}}}
	p := NewProjector(&fakeLedger{}, rules)

	points, err := p.Project(mustDate(t, "2025-03-01"), mustDate(t, "2025-03-10"), decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(points) != 10 {
		t.Fatalf("got %d points, want 10", len(points))
	}
	for i, pt := range points {
		want := int64(100)
		if i >= 4 {
			want = 150
		}
		if !pt.Running.Equal(decimal.NewFromInt(want)) {
			t.Errorf("day %d (%s) running = %s, want %d", i+1, pt.Date.Format("2006-01-02"), pt.Running, want)
		}
	}
	if !points[4].Income.Equal(decimal.NewFromInt(50)) {
		t.Errorf("day 5 income = %s, want 50", points[4].Income)
	}
}

func TestProjectRolloverFromPostedHistory(t *testing.T) {
	// Posted activity strictly before the range start is folded into a
	// single rollover term.
	ledger := &fakeLedger{txs: []models.Transaction{
		tx(t, "2025-01-10", models.KindIncome, 500, "salary"),
		tx(t, "2025-01-20", models.KindExpense, 120, "food"),
		tx(t, "2025-02-03", models.KindExpense, 30, "food"),
	}}
	p := NewProjector(ledger, &fakeRules{})

	points, err := p.Project(mustDate(t, "2025-02-01"), mustDate(t, "2025-02-05"), decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	// 100 + 500 - 120 = 480 carried into the range.
	if !points[0].Running.Equal(decimal.NewFromInt(480)) {
		t.Errorf("day 1 running = %s, want 480", points[0].Running)
	}
	if !points[2].Running.Equal(decimal.NewFromInt(450)) {
		t.Errorf("day 3 running = %s, want 450", points[2].Running)
	}
	if !points[4].Running.Equal(decimal.NewFromInt(450)) {
		t.Errorf("day 5 running = %s, want 450 (no activity, value repeats)", points[4].Running)
	}
}

func TestProjectIdempotentAcrossSplitPoints(t *testing.T) {
	// The running value at any day must not depend on how the range was
	// chunked: project(d0, d2) at d1 equals project(d0, d1)'s final
	// value for every split point d1.
	ledger := &fakeLedger{txs: []models.Transaction{
		tx(t, "2025-04-02", models.KindExpense, 40, "food"),
		tx(t, "2025-04-11", models.KindIncome, 250, "salary"),
		tx(t, "2025-04-19", models.KindExpense, 15, "transport"),
	}}
	rules := &fakeRules{rules: []models.Rule{{
		ID:        1,
		Kind:      models.KindIncome,
		Amount:    decimal.NewFromInt(1000),
		Frequency: models.Weekly,
		DayOfWeek: dow(dates.Friday),
		StartDate: mustDate(t, "2025-04-01"),
		Active:    true,
	}}}
	p := NewProjector(ledger, rules)
	bal := decimal.NewFromInt(75)

	d0 := mustDate(t, "2025-04-01")
	d2 := mustDate(t, "2025-04-30")
	full, err := p.Project(d0, d2, bal)
	if err != nil {
		t.Fatalf("Project full: %v", err)
	}

	for i, pt := range full {
		chunk, err := p.Project(d0, pt.Date, bal)
		if err != nil {
			t.Fatalf("Project chunk to %s: %v", pt.Date.Format("2006-01-02"), err)
		}
		final := chunk[len(chunk)-1].Running
		if !final.Equal(pt.Running) {
			t.Errorf("split at day %d (%s): chunk final %s != full running %s",
				i+1, pt.Date.Format("2006-01-02"), final, pt.Running)
		}
	}
}

func TestProjectContiguousRangesChainThroughRollover(t *testing.T) {
	// With no scheduled rules, the rollover term makes back-to-back
	// ranges line up: the second range opens where the first closed.
	ledger := &fakeLedger{txs: []models.Transaction{
		tx(t, "2025-05-05", models.KindIncome, 300, "salary"),
		tx(t, "2025-05-25", models.KindExpense, 90, "rent"),
	}}
	p := NewProjector(ledger, &fakeRules{})
	bal := decimal.NewFromInt(10)

	may, err := p.Project(mustDate(t, "2025-05-01"), mustDate(t, "2025-05-31"), bal)
	if err != nil {
		t.Fatalf("Project may: %v", err)
	}
	june, err := p.Project(mustDate(t, "2025-06-01"), mustDate(t, "2025-06-30"), bal)
	if err != nil {
		t.Fatalf("Project june: %v", err)
	}

	mayFinal := may[len(may)-1].Running
	if !june[0].Running.Equal(mayFinal) {
		t.Errorf("june opens at %s, want may's final %s", june[0].Running, mayFinal)
	}
}

func TestProjectEmptyRange(t *testing.T) {
	p := NewProjector(&fakeLedger{}, &fakeRules{})
	points, err := p.Project(mustDate(t, "2025-02-10"), mustDate(t, "2025-02-01"), decimal.Zero)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("got %d points for inverted range, want 0", len(points))
	}
}

func TestBalanceAsOf(t *testing.T) {
	ledger := &fakeLedger{txs: []models.Transaction{
		tx(t, "2025-01-05", models.KindIncome, 200, "salary"),
		tx(t, "2025-01-06", models.KindExpense, 50, "food"),
		tx(t, "2025-01-07", models.KindIncome, 10, "misc"),
	}}
	p := NewProjector(ledger, &fakeRules{})

	bal, err := p.BalanceAsOf(mustDate(t, "2025-01-06"), decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("BalanceAsOf: %v", err)
	}
	// 100 + 200 - 50; the entry on the 7th is not counted yet.
	if !bal.Equal(decimal.NewFromInt(250)) {
		t.Errorf("balance = %s, want 250", bal)
	}
}
