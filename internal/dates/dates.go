// Package dates provides whole-calendar-day arithmetic for the ledger.
// All dates are normalized to midnight UTC; anything finer than a day is
// out of scope.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// DayOfWeek numbers weekdays Monday=0 through Sunday=6. This is the
// convention stored with schedules, not Go's Sunday-based time.Weekday.
type DayOfWeek int

const (
	Monday DayOfWeek = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Valid reports whether d is in [Monday, Sunday].
func (d DayOfWeek) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d DayOfWeek) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DayOfWeek(%d)", int(d))
	}
	return dayNames[d]
}

// Weekday converts to Go's Sunday-based weekday.
func (d DayOfWeek) Weekday() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

// FromWeekday converts Go's Sunday-based weekday to Monday-based.
func FromWeekday(w time.Weekday) DayOfWeek {
	return DayOfWeek((int(w) + 6) % 7)
}

// Day truncates t to midnight UTC, keeping only the calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// WeekBounds returns the Monday and Sunday of the week containing d.
func WeekBounds(d time.Time) (start, end time.Time) {
	d = Day(d)
	start = d.AddDate(0, 0, -int(FromWeekday(d.Weekday())))
	return start, start.AddDate(0, 0, 6)
}

// MonthBounds returns the first and last day of the month containing d.
func MonthBounds(d time.Time) (start, end time.Time) {
	start = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// Parse accepts the date formats users actually type: ISO (2006-01-02),
// a full RFC3339 timestamp, or US-style M/D/Y.
func Parse(s string) (time.Time, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Day(t), nil
	}
	if t, err := time.Parse("1/2/2006", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
}

// ParseOr parses s leniently and falls back to Day(fallback) when s is
// empty or malformed.
func ParseOr(s string, fallback time.Time) time.Time {
	t, err := Parse(s)
	if err != nil {
		return Day(fallback)
	}
	return t
}

// ParseMonth parses a YYYY-MM string into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized month: %q", s)
	}
	return t, nil
}
