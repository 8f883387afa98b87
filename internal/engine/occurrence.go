// Package engine holds the core computations: occurrence expansion,
// ledger aggregation, balance projection and the affordability forecast.
// Everything here is a pure function over a store snapshot; the only
// writers live outside this package.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mwootten/easie/internal/dates"
	"github.com/mwootten/easie/internal/models"
)

// ErrInvalidRule marks rules rejected by ValidateRule. Invalid rules are
// stopped at creation time and never reach Expand.
var ErrInvalidRule = errors.New("invalid rule")

// ValidateRule checks the invariants a rule must hold before it may be
// stored or expanded: non-negative amount, start before end, and a valid
// day-of-week anchor for every recurring frequency.
func ValidateRule(r models.Rule) error {
	if r.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must be non-negative, got %s", ErrInvalidRule, r.Amount)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, r.Kind)
	}
	if _, err := models.ParseFrequency(string(r.Frequency)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if r.Frequency.Recurring() {
		if r.DayOfWeek == nil {
			return fmt.Errorf("%w: %s rule needs a day-of-week anchor", ErrInvalidRule, r.Frequency)
		}
		if !r.DayOfWeek.Valid() {
			return fmt.Errorf("%w: day-of-week %d out of range", ErrInvalidRule, int(*r.DayOfWeek))
		}
	}
	if r.EndDate != nil && dates.Day(*r.EndDate).Before(dates.Day(r.StartDate)) {
		return fmt.Errorf("%w: end date %s before start date %s",
			ErrInvalidRule, r.EndDate.Format("2006-01-02"), r.StartDate.Format("2006-01-02"))
	}
	return nil
}

// Expand turns one rule into its dated occurrences up to and including
// horizon. It is a pure function of (rule, horizon): same inputs, same
// sequence. An effective start past the effective end yields an empty
// sequence, not an error.
func Expand(r models.Rule, horizon time.Time) []models.Occurrence {
	start := dates.Day(r.StartDate)
	end := dates.Day(horizon)
	if r.EndDate != nil && dates.Day(*r.EndDate).Before(end) {
		end = dates.Day(*r.EndDate)
	}

	// Realign an arbitrary start date forward to the anchored weekday.
	if r.Frequency.Recurring() && r.DayOfWeek != nil {
		offset := (int(*r.DayOfWeek) - int(dates.FromWeekday(start.Weekday())) + 7) % 7
		start = start.AddDate(0, 0, offset)
	}

	var occs []models.Occurrence
	for cur := start; !cur.After(end); {
		occs = append(occs, models.Occurrence{
			RuleID:   r.ID,
			Date:     cur,
			Kind:     r.Kind,
			Name:     r.Name,
			Category: r.Category,
			Amount:   r.Amount,
		})

		switch r.Frequency {
		case models.Weekly:
			cur = cur.AddDate(0, 0, 7)
		case models.Biweekly:
			cur = cur.AddDate(0, 0, 14)
		case models.Monthly:
			// Month stepping preserves the weekday, not the day of
			// month: next occurrence is the first date in the following
			// month that falls on the anchor. "First Friday of every
			// month", never "every 15th".
			cur = firstAnchorOfNextMonth(cur, *r.DayOfWeek)
		default: // one-time
			return occs
		}
	}
	return occs
}

// ExpandAll expands every rule to the horizon and returns the merged
// occurrences ordered by date, then rule ID.
func ExpandAll(rules []models.Rule, horizon time.Time) []models.Occurrence {
	var occs []models.Occurrence
	for _, r := range rules {
		occs = append(occs, Expand(r, horizon)...)
	}
	sort.SliceStable(occs, func(i, j int) bool {
		if !occs[i].Date.Equal(occs[j].Date) {
			return occs[i].Date.Before(occs[j].Date)
		}
		return occs[i].RuleID < occs[j].RuleID
	})
	return occs
}

func firstAnchorOfNextMonth(cur time.Time, dow dates.DayOfWeek) time.Time {
	first := time.Date(cur.Year(), cur.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(dow) - int(dates.FromWeekday(first.Weekday())) + 7) % 7
	return first.AddDate(0, 0, offset)
}
