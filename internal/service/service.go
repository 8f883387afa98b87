// Package service glues the HTTP layer to the store and the engine. All
// input validation happens here: invalid rules and malformed payloads
// never reach expansion or projection.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mwootten/easie/internal/dates"
	"github.com/mwootten/easie/internal/engine"
	"github.com/mwootten/easie/internal/models"
)

const startingBalanceKey = "starting_balance"

// ErrInvalidInput marks rejected user input that is not a rule: bad
// amounts, missing dates, negative prices.
var ErrInvalidInput = errors.New("invalid input")

// Store is everything the service needs from persistence. The postgres
// repository satisfies it; tests use an in-memory fake.
type Store interface {
	engine.Ledger
	engine.RuleSource
	engine.BudgetSource

	CreateTransaction(*models.Transaction) error
	ListTransactions() ([]models.Transaction, error)
	UpdateTransaction(*models.Transaction) error
	DeleteTransaction(id int64) error
	ClearTransactions() error

	CreateSchedule(*models.Rule) error
	ListSchedules() ([]models.Rule, error)
	UpdateSchedule(*models.Rule) error
	DeleteSchedule(id int64) error

	ListBudgets() ([]models.Budget, error)
	UpsertBudget(category string, weekly decimal.Decimal) error
	ResetBudgets() error

	GetParam(key string) (string, error)
	SetParam(key, value string) error
}

// Service handles business logic.
type Service struct {
	store     Store
	log       *logrus.Logger
	projector *engine.Projector
	now       func() time.Time
}

// NewService initializes a new service.
func NewService(store Store, log *logrus.Logger) *Service {
	return &Service{
		store:     store,
		log:       log,
		projector: engine.NewProjector(store, store),
		now:       time.Now,
	}
}

// StartingBalance reads the starting-balance param; absent or garbled
// values read as zero.
func (s *Service) StartingBalance() (decimal.Decimal, error) {
	raw, err := s.store.GetParam(startingBalanceKey)
	if err != nil {
		return decimal.Zero, err
	}
	if raw == "" {
		return decimal.Zero, nil
	}
	bal, err := decimal.NewFromString(raw)
	if err != nil {
		s.log.Warnf("Stored starting balance %q is not a number, using 0", raw)
		return decimal.Zero, nil
	}
	return bal, nil
}

// SetStartingBalance stores the starting-balance param.
func (s *Service) SetStartingBalance(bal decimal.Decimal) error {
	if err := s.store.SetParam(startingBalanceKey, bal.String()); err != nil {
		return err
	}
	s.log.Infof("Starting balance set to %s", bal)
	return nil
}

// AddTransaction validates and posts a ledger entry.
func (s *Service) AddTransaction(tx *models.Transaction) error {
	if err := validateTransaction(tx); err != nil {
		return err
	}
	tx.Date = dates.Day(tx.Date)
	if err := s.store.CreateTransaction(tx); err != nil {
		return err
	}
	s.log.Infof("Posted %s of %s in %s on %s", tx.Kind, tx.Amount, tx.Category, tx.Date.Format("2006-01-02"))
	return nil
}

// ListTransactions returns all posted entries.
func (s *Service) ListTransactions() ([]models.Transaction, error) {
	return s.store.ListTransactions()
}

// UpdateTransaction validates and rewrites a posted entry.
func (s *Service) UpdateTransaction(tx *models.Transaction) error {
	if err := validateTransaction(tx); err != nil {
		return err
	}
	tx.Date = dates.Day(tx.Date)
	return s.store.UpdateTransaction(tx)
}

// DeleteTransaction removes one posted entry.
func (s *Service) DeleteTransaction(id int64) error {
	return s.store.DeleteTransaction(id)
}

// ClearTransactions removes the whole posted history.
func (s *Service) ClearTransactions() error {
	if err := s.store.ClearTransactions(); err != nil {
		return err
	}
	s.log.Warn("All transactions cleared")
	return nil
}

// CreateSchedule validates and stores a recurrence rule. Rules arrive
// active unless the caller says otherwise.
func (s *Service) CreateSchedule(rule *models.Rule) error {
	if err := engine.ValidateRule(*rule); err != nil {
		return err
	}
	rule.StartDate = dates.Day(rule.StartDate)
	if err := s.store.CreateSchedule(rule); err != nil {
		return err
	}
	s.log.Infof("Schedule created: %s %s %s of %s", rule.Name, rule.Frequency, rule.Kind, rule.Amount)
	return nil
}

// ListSchedules returns every rule.
func (s *Service) ListSchedules() ([]models.Rule, error) {
	return s.store.ListSchedules()
}

// UpdateSchedule validates and rewrites a rule.
func (s *Service) UpdateSchedule(rule *models.Rule) error {
	if err := engine.ValidateRule(*rule); err != nil {
		return err
	}
	rule.StartDate = dates.Day(rule.StartDate)
	return s.store.UpdateSchedule(rule)
}

// DeleteSchedule removes a rule.
func (s *Service) DeleteSchedule(id int64) error {
	return s.store.DeleteSchedule(id)
}

// ListBudgets returns the configured weekly budgets.
func (s *Service) ListBudgets() ([]models.Budget, error) {
	return s.store.ListBudgets()
}

// SaveBudgets upserts weekly amounts; negative amounts are rejected.
func (s *Service) SaveBudgets(budgets []models.Budget) error {
	for _, b := range budgets {
		if b.WeeklyAmount.IsNegative() {
			return fmt.Errorf("%w: budget for %q must be non-negative", ErrInvalidInput, b.Category)
		}
	}
	for _, b := range budgets {
		if err := s.store.UpsertBudget(b.Category, b.WeeklyAmount); err != nil {
			return err
		}
	}
	return nil
}

// ResetBudgets zeroes every weekly budget.
func (s *Service) ResetBudgets() error {
	if err := s.store.ResetBudgets(); err != nil {
		return err
	}
	s.log.Warn("All budgets reset to zero")
	return nil
}

// BudgetStatuses returns each budget with this week's spending applied.
func (s *Service) BudgetStatuses() ([]models.BudgetStatus, error) {
	weekStart, weekEnd := dates.WeekBounds(s.now())
	budgets, err := s.store.ListBudgets()
	if err != nil {
		return nil, err
	}
	statuses := make([]models.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.store.SumEntries(weekStart, weekEnd, models.KindExpense, b.Category)
		if err != nil {
			return nil, err
		}
		remaining := b.WeeklyAmount.Sub(spent)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		statuses = append(statuses, models.BudgetStatus{
			Category:     b.Category,
			WeeklyAmount: b.WeeklyAmount,
			Spent:        spent,
			Remaining:    remaining,
		})
	}
	return statuses, nil
}

// CurrentBalance is today's running balance: starting balance plus all
// posted net activity through today.
func (s *Service) CurrentBalance() (decimal.Decimal, error) {
	bal, err := s.StartingBalance()
	if err != nil {
		return decimal.Zero, err
	}
	return s.projector.BalanceAsOf(s.now(), bal)
}

// Project returns the balance series for [from, to], merging posted
// activity with scheduled occurrences.
func (s *Service) Project(from, to time.Time) ([]models.BalancePoint, error) {
	bal, err := s.StartingBalance()
	if err != nil {
		return nil, err
	}
	return s.projector.Project(from, to, bal)
}

// CalendarMonth projects one calendar month. A missing or malformed
// month string falls back to the current month.
func (s *Service) CalendarMonth(month string) (time.Time, []models.BalancePoint, error) {
	anchor, err := dates.ParseMonth(month)
	if err != nil {
		anchor = dates.Day(s.now())
	}
	start, end := dates.MonthBounds(anchor)
	points, err := s.Project(start, end)
	return start, points, err
}

// Forecast runs the affordability check. An unparseable target date
// degrades to today rather than failing.
func (s *Service) Forecast(price decimal.Decimal, category, targetDate string) (*models.ForecastReport, error) {
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be non-negative", ErrInvalidInput)
	}
	target := dates.ParseOr(targetDate, s.now())
	bal, err := s.StartingBalance()
	if err != nil {
		return nil, err
	}
	forecaster := engine.NewForecasterAt(s.store, s.store, s.store, s.now)
	return forecaster.Forecast(price, category, target, bal)
}

// UpcomingOccurrences lists scheduled events from today through
// today+days, for the daily digest.
func (s *Service) UpcomingOccurrences(days int) ([]models.Occurrence, error) {
	today := dates.Day(s.now())
	rules, err := s.store.ListActiveRules()
	if err != nil {
		return nil, err
	}
	var upcoming []models.Occurrence
	for _, o := range engine.ExpandAll(rules, today.AddDate(0, 0, days)) {
		if !o.Date.Before(today) {
			upcoming = append(upcoming, o)
		}
	}
	return upcoming, nil
}

func validateTransaction(tx *models.Transaction) error {
	if tx.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must be non-negative", ErrInvalidInput)
	}
	if !tx.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, tx.Kind)
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return nil
}
