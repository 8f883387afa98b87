package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwootten/easie/internal/dates"
)

// Rule is a recurring (or one-time) financial event template: "$1000
// every other Friday starting 2025-01-03". Concrete dated occurrences are
// derived from it on every query, never stored.
type Rule struct {
	ID        int64            `json:"id"`
	Kind      Kind             `json:"kind"`
	Name      string           `json:"name"`
	Category  string           `json:"category"`
	Amount    decimal.Decimal  `json:"amount"`
	Frequency Frequency        `json:"frequency"`
	DayOfWeek *dates.DayOfWeek `json:"dow,omitempty"` // required unless one-time
	StartDate time.Time        `json:"start_date"`
	EndDate   *time.Time       `json:"end_date,omitempty"` // inclusive
	Active    bool             `json:"active"`
}
