// Package repository is the postgres store for transactions, schedules,
// budgets and params. It owns the schema and is the only layer that
// speaks SQL.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwootten/easie/internal/dates"
	"github.com/mwootten/easie/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// defaultCategories seeds the budgets table so every category row exists
// with a zero weekly amount until the user sets one.
var defaultCategories = []string{
	"rent", "utilities", "subscriptions", "food",
	"entertainment", "misc", "transport", "savings",
}

// Repository provides database operations.
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the schema if missing and seeds default budgets and
// the starting-balance param.
func (r *Repository) Migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			tx_date DATE NOT NULL,
			amount NUMERIC(14,2) NOT NULL CHECK (amount >= 0),
			category TEXT NOT NULL,
			memo TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL CHECK (kind IN ('income','expense'))
		)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id BIGSERIAL PRIMARY KEY,
			kind TEXT NOT NULL CHECK (kind IN ('income','expense')),
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			amount NUMERIC(14,2) NOT NULL CHECK (amount >= 0),
			frequency TEXT NOT NULL,
			dow INTEGER,
			start_date DATE NOT NULL,
			end_date DATE,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS budgets (
			id BIGSERIAL PRIMARY KEY,
			category TEXT UNIQUE NOT NULL,
			weekly_amount NUMERIC(14,2) NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS params (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	for _, c := range defaultCategories {
		if _, err := r.db.Exec(
			`INSERT INTO budgets (category, weekly_amount) VALUES ($1, 0) ON CONFLICT (category) DO NOTHING`, c); err != nil {
			return fmt.Errorf("seed budget %q: %w", c, err)
		}
	}
	if _, err := r.db.Exec(
		`INSERT INTO params (key, value) VALUES ('starting_balance', '0') ON CONFLICT (key) DO NOTHING`); err != nil {
		return fmt.Errorf("seed starting balance: %w", err)
	}
	return nil
}

// CreateTransaction inserts a posted ledger entry.
func (r *Repository) CreateTransaction(tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (tx_date, amount, category, memo, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.db.QueryRow(query, dates.Day(tx.Date), tx.Amount, tx.Category, tx.Memo, string(tx.Kind)).
		Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactions returns all posted entries, newest first.
func (r *Repository) ListTransactions() ([]models.Transaction, error) {
	rows, err := r.db.Query(`
		SELECT id, tx_date, amount, category, memo, kind
		FROM transactions
		ORDER BY tx_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var kind string
		if err := rows.Scan(&t.ID, &t.Date, &t.Amount, &t.Category, &t.Memo, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Kind = models.Kind(kind)
		t.Date = dates.Day(t.Date)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// UpdateTransaction rewrites a posted entry.
func (r *Repository) UpdateTransaction(tx *models.Transaction) error {
	res, err := r.db.Exec(`
		UPDATE transactions
		SET tx_date = $1, amount = $2, category = $3, memo = $4, kind = $5
		WHERE id = $6`,
		dates.Day(tx.Date), tx.Amount, tx.Category, tx.Memo, string(tx.Kind), tx.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return requireRow(res)
}

// DeleteTransaction removes one posted entry.
func (r *Repository) DeleteTransaction(id int64) error {
	res, err := r.db.Exec(`DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRow(res)
}

// ClearTransactions removes every posted entry.
func (r *Repository) ClearTransactions() error {
	if _, err := r.db.Exec(`DELETE FROM transactions`); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

// SumEntries totals posted amounts over [from, to] inclusive, optionally
// filtered by kind and category. A zero `from` or `to` leaves that bound
// open. Empty ranges sum to zero, never error.
func (r *Repository) SumEntries(from, to time.Time, kind models.Kind, category string) (decimal.Decimal, error) {
	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !from.IsZero() {
		where = append(where, "tx_date >= "+arg(dates.Day(from)))
	}
	if !to.IsZero() {
		where = append(where, "tx_date <= "+arg(dates.Day(to)))
	}
	if kind != "" {
		where = append(where, "kind = "+arg(string(kind)))
	}
	if category != "" {
		where = append(where, "category = "+arg(category))
	}
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var sum decimal.Decimal
	if err := r.db.QueryRow(query, args...).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum entries: %w", err)
	}
	return sum, nil
}

// CreateSchedule inserts a recurrence rule.
func (r *Repository) CreateSchedule(rule *models.Rule) error {
	query := `
		INSERT INTO schedules (kind, name, category, amount, frequency, dow, start_date, end_date, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.db.QueryRow(query,
		string(rule.Kind), rule.Name, rule.Category, rule.Amount, string(rule.Frequency),
		dowValue(rule.DayOfWeek), dates.Day(rule.StartDate), endValue(rule.EndDate), rule.Active).
		Scan(&rule.ID)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// ListSchedules returns every rule, newest first.
func (r *Repository) ListSchedules() ([]models.Rule, error) {
	return r.querySchedules(`
		SELECT id, kind, name, category, amount, frequency, dow, start_date, end_date, active
		FROM schedules
		ORDER BY id DESC`)
}

// ListActiveRules returns the rules eligible for occurrence expansion.
func (r *Repository) ListActiveRules() ([]models.Rule, error) {
	return r.querySchedules(`
		SELECT id, kind, name, category, amount, frequency, dow, start_date, end_date, active
		FROM schedules
		WHERE active
		ORDER BY id`)
}

func (r *Repository) querySchedules(query string) ([]models.Rule, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		var rule models.Rule
		var kind, frequency string
		var dow sql.NullInt64
		var end sql.NullTime
		if err := rows.Scan(&rule.ID, &kind, &rule.Name, &rule.Category, &rule.Amount,
			&frequency, &dow, &rule.StartDate, &end, &rule.Active); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		rule.Kind = models.Kind(kind)
		rule.Frequency = models.Frequency(frequency)
		rule.StartDate = dates.Day(rule.StartDate)
		if dow.Valid {
			d := dates.DayOfWeek(dow.Int64)
			rule.DayOfWeek = &d
		}
		if end.Valid {
			e := dates.Day(end.Time)
			rule.EndDate = &e
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// UpdateSchedule rewrites a rule.
func (r *Repository) UpdateSchedule(rule *models.Rule) error {
	res, err := r.db.Exec(`
		UPDATE schedules
		SET kind = $1, name = $2, category = $3, amount = $4, frequency = $5,
		    dow = $6, start_date = $7, end_date = $8, active = $9
		WHERE id = $10`,
		string(rule.Kind), rule.Name, rule.Category, rule.Amount, string(rule.Frequency),
		dowValue(rule.DayOfWeek), dates.Day(rule.StartDate), endValue(rule.EndDate), rule.Active, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return requireRow(res)
}

// DeleteSchedule removes a rule.
func (r *Repository) DeleteSchedule(id int64) error {
	res, err := r.db.Exec(`DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return requireRow(res)
}

// ListBudgets returns all weekly budgets ordered by category.
func (r *Repository) ListBudgets() ([]models.Budget, error) {
	rows, err := r.db.Query(`SELECT category, weekly_amount FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(&b.Category, &b.WeeklyAmount); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// UpsertBudget sets the weekly amount for a category, creating the row
// if needed.
func (r *Repository) UpsertBudget(category string, weekly decimal.Decimal) error {
	_, err := r.db.Exec(`
		INSERT INTO budgets (category, weekly_amount) VALUES ($1, $2)
		ON CONFLICT (category) DO UPDATE SET weekly_amount = EXCLUDED.weekly_amount`,
		category, weekly)
	if err != nil {
		return fmt.Errorf("failed to upsert budget %q: %w", category, err)
	}
	return nil
}

// ResetBudgets zeroes every weekly amount.
func (r *Repository) ResetBudgets() error {
	if _, err := r.db.Exec(`UPDATE budgets SET weekly_amount = 0`); err != nil {
		return fmt.Errorf("failed to reset budgets: %w", err)
	}
	return nil
}

// WeeklyBudget returns the configured amount for a category. An
// unconfigured category is a zero budget, not an error.
func (r *Repository) WeeklyBudget(category string) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := r.db.QueryRow(`SELECT weekly_amount FROM budgets WHERE category = $1`, category).Scan(&amount)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read budget %q: %w", category, err)
	}
	return amount, nil
}

// GetParam reads a settings value; absent keys read as empty.
func (r *Repository) GetParam(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM params WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read param %q: %w", key, err)
	}
	return value, nil
}

// SetParam upserts a settings value.
func (r *Repository) SetParam(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO params (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set param %q: %w", key, err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func dowValue(d *dates.DayOfWeek) interface{} {
	if d == nil {
		return nil
	}
	return int64(*d)
}

func endValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dates.Day(*t)
}
