package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Occurrence is one concrete dated instance expanded from a Rule.
// (RuleID, Date) is unique within a single horizon expansion.
type Occurrence struct {
	RuleID   int64           `json:"rule_id"`
	Date     time.Time       `json:"date"`
	Kind     Kind            `json:"kind"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}
