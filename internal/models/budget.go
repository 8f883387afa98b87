package models

import "github.com/shopspring/decimal"

// Budget is the weekly spending limit for one category.
type Budget struct {
	Category     string          `json:"category"`
	WeeklyAmount decimal.Decimal `json:"weekly_amount"`
}

// BudgetStatus is a budget with this week's spending applied, for the
// dashboard view.
type BudgetStatus struct {
	Category     string          `json:"category"`
	WeeklyAmount decimal.Decimal `json:"weekly_amount"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"` // floored at zero
}
