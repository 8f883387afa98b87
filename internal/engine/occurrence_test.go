package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwootten/easie/internal/dates"
	"github.com/mwootten/easie/internal/models"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func dow(d dates.DayOfWeek) *dates.DayOfWeek {
	return &d
}

func datesOf(occs []models.Occurrence) []string {
	out := make([]string, 0, len(occs))
	for _, o := range occs {
		out = append(out, o.Date.Format("2006-01-02"))
	}
	return out
}

func TestExpandWeeklyAlignsToAnchor(t *testing.T) {
	// Start on a Wednesday, anchor Friday: the first occurrence lands on
	// the next Friday, then every 7 days.
	rule := models.Rule{
		ID:        1,
		Kind:      models.KindIncome,
		Name:      "paycheck",
		Category:  "salary",
		Amount:    decimal.NewFromInt(1000),
		Frequency: models.Weekly,
		DayOfWeek: dow(dates.Friday),
		StartDate: mustDate(t, "2025-01-01"),
		Active:    true,
	}

	occs := Expand(rule, mustDate(t, "2025-01-31"))

	want := []string{"2025-01-03", "2025-01-10", "2025-01-17", "2025-01-24", "2025-01-31"}
	got := datesOf(occs)
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}
	for _, o := range occs {
		if o.Date.Weekday() != time.Friday {
			t.Errorf("occurrence on %s is a %s, want Friday", o.Date.Format("2006-01-02"), o.Date.Weekday())
		}
		if !o.Amount.Equal(rule.Amount) || o.Kind != rule.Kind || o.RuleID != rule.ID {
			t.Errorf("occurrence fields not copied from rule: %+v", o)
		}
	}
}

func TestExpandBiweeklySpacing(t *testing.T) {
	rule := models.Rule{
		Kind:      models.KindExpense,
		Amount:    decimal.NewFromInt(50),
		Frequency: models.Biweekly,
		DayOfWeek: dow(dates.Monday),
		StartDate: mustDate(t, "2025-01-01"),
	}

	occs := Expand(rule, mustDate(t, "2025-03-31"))
	if len(occs) < 2 {
		t.Fatalf("got %d occurrences, want several", len(occs))
	}
	for i, o := range occs {
		if o.Date.Weekday() != time.Monday {
			t.Errorf("occurrence on %s is a %s, want Monday", o.Date.Format("2006-01-02"), o.Date.Weekday())
		}
		if i > 0 {
			gap := o.Date.Sub(occs[i-1].Date).Hours() / 24
			if gap != 14 {
				t.Errorf("gap between occurrences %d and %d is %.0f days, want 14", i-1, i, gap)
			}
		}
	}
}

func TestExpandMonthlyFirstAnchorOfMonth(t *testing.T) {
	// Monthly steps to the first date of the next month matching the
	// anchor weekday, never to the same day-of-month.
	rule := models.Rule{
		Kind:      models.KindIncome,
		Amount:    decimal.NewFromInt(1800),
		Frequency: models.Monthly,
		DayOfWeek: dow(dates.Monday),
		StartDate: mustDate(t, "2025-01-01"),
	}

	occs := Expand(rule, mustDate(t, "2025-04-30"))

	want := []string{"2025-01-06", "2025-02-03", "2025-03-03", "2025-04-07"}
	got := datesOf(occs)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}
	for i, o := range occs {
		if o.Date.Weekday() != time.Monday {
			t.Errorf("occurrence on %s is a %s, want Monday", o.Date.Format("2006-01-02"), o.Date.Weekday())
		}
		if i > 0 {
			gap := o.Date.Sub(occs[i-1].Date).Hours() / 24
			if gap < 28 || gap > 35 {
				t.Errorf("monthly gap %d is %.0f days, want 28..35", i, gap)
			}
		}
	}
}

func TestExpandOneTime(t *testing.T) {
	rule := models.Rule{
		Kind:      models.KindExpense,
		Amount:    decimal.NewFromInt(300),
		Frequency: models.OneTime,
		StartDate: mustDate(t, "2025-02-14"),
	}

	occs := Expand(rule, mustDate(t, "2025-12-31"))
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences, want exactly 1", len(occs))
	}
	if got := occs[0].Date.Format("2006-01-02"); got != "2025-02-14" {
		t.Errorf("occurrence date = %s, want 2025-02-14", got)
	}

	// Start past the horizon yields nothing.
	if occs := Expand(rule, mustDate(t, "2025-02-13")); len(occs) != 0 {
		t.Errorf("got %d occurrences past horizon, want 0", len(occs))
	}
}

func TestExpandEmptyWhenEndBeforeStart(t *testing.T) {
	end := mustDate(t, "2024-12-01")
	rule := models.Rule{
		Kind:      models.KindIncome,
		Amount:    decimal.NewFromInt(10),
		Frequency: models.Weekly,
		DayOfWeek: dow(dates.Friday),
		StartDate: mustDate(t, "2025-01-01"),
		EndDate:   &end,
	}

	if occs := Expand(rule, mustDate(t, "2025-06-30")); len(occs) != 0 {
		t.Errorf("got %d occurrences for inverted range, want 0", len(occs))
	}
}

func TestExpandEndDateCapsHorizon(t *testing.T) {
	end := mustDate(t, "2025-01-17")
	rule := models.Rule{
		Kind:      models.KindIncome,
		Amount:    decimal.NewFromInt(10),
		Frequency: models.Weekly,
		DayOfWeek: dow(dates.Friday),
		StartDate: mustDate(t, "2025-01-01"),
		EndDate:   &end,
	}

	got := datesOf(Expand(rule, mustDate(t, "2025-12-31")))
	want := []string{"2025-01-03", "2025-01-10", "2025-01-17"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestExpandAllMergesOrdered(t *testing.T) {
	rules := []models.Rule{
		{ID: 1, Kind: models.KindIncome, Amount: decimal.NewFromInt(1000), Frequency: models.Weekly,
			DayOfWeek: dow(dates.Friday), StartDate: mustDate(t, "2025-01-01")},
		{ID: 2, Kind: models.KindExpense, Amount: decimal.NewFromInt(80), Frequency: models.Weekly,
			DayOfWeek: dow(dates.Monday), StartDate: mustDate(t, "2025-01-01")},
	}

	occs := ExpandAll(rules, mustDate(t, "2025-01-31"))
	for i := 1; i < len(occs); i++ {
		if occs[i].Date.Before(occs[i-1].Date) {
			t.Fatalf("occurrences out of order at %d: %s after %s",
				i, occs[i].Date.Format("2006-01-02"), occs[i-1].Date.Format("2006-01-02"))
		}
	}
	seen := make(map[[2]int64]bool)
	for _, o := range occs {
		key := [2]int64{o.RuleID, o.Date.Unix()}
		if seen[key] {
			t.Fatalf("duplicate (rule %d, %s)", o.RuleID, o.Date.Format("2006-01-02"))
		}
		seen[key] = true
	}
}

func TestValidateRule(t *testing.T) {
	end := mustDate(t, "2024-01-01")
	valid := models.Rule{
		Kind:      models.KindIncome,
		Amount:    decimal.NewFromInt(100),
		Frequency: models.Weekly,
		DayOfWeek: dow(dates.Friday),
		StartDate: mustDate(t, "2025-01-01"),
	}

	cases := []struct {
		name    string
		mutate  func(*models.Rule)
		wantErr bool
	}{
		{"valid weekly", func(r *models.Rule) {}, false},
		{"valid one-time without anchor", func(r *models.Rule) {
			r.Frequency = models.OneTime
			r.DayOfWeek = nil
		}, false},
		{"monthly without anchor", func(r *models.Rule) {
			r.Frequency = models.Monthly
			r.DayOfWeek = nil
		}, true},
		{"weekly without anchor", func(r *models.Rule) { r.DayOfWeek = nil }, true},
		{"anchor out of range", func(r *models.Rule) { r.DayOfWeek = dow(dates.DayOfWeek(7)) }, true},
		{"negative amount", func(r *models.Rule) { r.Amount = decimal.NewFromInt(-5) }, true},
		{"unknown frequency", func(r *models.Rule) { r.Frequency = "fortnightly" }, true},
		{"end before start", func(r *models.Rule) { r.EndDate = &end }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := valid
			tc.mutate(&rule)
			err := ValidateRule(rule)
			if tc.wantErr && err == nil {
				t.Fatal("ValidateRule returned nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("ValidateRule returned %v, want nil", err)
			}
		})
	}
}
