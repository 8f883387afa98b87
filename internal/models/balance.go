package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalancePoint is one day of a projected balance series: posted plus
// scheduled totals for the day and the running balance after it. The
// series is always recomputed, never stored.
type BalancePoint struct {
	Date    time.Time       `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Running decimal.Decimal `json:"running"`
}
