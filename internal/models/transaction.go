package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a posted ledger entry.
type Transaction struct {
	ID       int64           `json:"id"`
	Date     time.Time       `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Memo     string          `json:"memo"`
	Kind     Kind            `json:"kind"`
}
