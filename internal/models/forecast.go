package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Verdict is the weekly-budget traffic light for a hypothetical purchase.
type Verdict string

const (
	VerdictGreen  Verdict = "green"
	VerdictYellow Verdict = "yellow"
	VerdictRed    Verdict = "red"
)

// ForecastReport answers "can I afford this?" on two independent tiers:
// this week's budget and the next 90 days of projected balance. A
// purchase can be green this week and still go negative within 90 days.
type ForecastReport struct {
	WeeklyStatus   Verdict         `json:"weekly_status"`
	WeeklyBudget   decimal.Decimal `json:"weekly_budget"`
	SpentThisWeek  decimal.Decimal `json:"spent_this_week"`
	RemainderAfter decimal.Decimal `json:"remainder_after"`

	GoesNegative     bool            `json:"goes_negative_within_90_days"`
	FirstNegativeDay *time.Time      `json:"first_negative_day,omitempty"`
	MinBalance       decimal.Decimal `json:"min_balance"`
	MinBalanceDay    time.Time       `json:"min_balance_day"`
}
