package models

import "fmt"

// Frequency is how often a schedule fires. It is a closed set: values
// only enter the system through ParseFrequency, so downstream code never
// sees an unknown frequency.
type Frequency string

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
	OneTime  Frequency = "one-time"
)

// ParseFrequency validates a user-supplied frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Weekly, Biweekly, Monthly, OneTime:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("unknown frequency: %q", s)
}

// Recurring reports whether the frequency repeats and therefore needs a
// day-of-week anchor.
func (f Frequency) Recurring() bool {
	return f != OneTime
}

func (f Frequency) String() string { return string(f) }
