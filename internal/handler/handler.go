// Package handler is the JSON boundary over the service layer. Request
// dates arrive as strings and are parsed leniently where the contract
// allows a safe default; everywhere else a bad payload is a 400.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mwootten/easie/internal/dates"
	"github.com/mwootten/easie/internal/engine"
	"github.com/mwootten/easie/internal/models"
	"github.com/mwootten/easie/internal/repository"
	"github.com/mwootten/easie/internal/service"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type transactionRequest struct {
	Date     string          `json:"date"`
	Kind     string          `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Memo     string          `json:"memo"`
}

type scheduleRequest struct {
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency string          `json:"frequency"`
	DayOfWeek *int            `json:"dow"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Active    *bool           `json:"active"`
}

type forecastRequest struct {
	Price      decimal.Decimal `json:"price"`
	Category   string          `json:"category"`
	TargetDate string          `json:"target_date"`
}

type settingsResponse struct {
	StartingBalance decimal.Decimal `json:"starting_balance"`
}

// balancePoint is the wire form of a BalancePoint, with plain ISO dates.
type balancePoint struct {
	Date    string          `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Running decimal.Decimal `json:"running"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]bool{"ok": true})
}

// CreateTransaction posts a ledger entry.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	tx, ok := h.toTransaction(w, req, 0)
	if !ok {
		return
	}
	if err := h.svc.AddTransaction(tx); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusCreated, tx)
}

// ListTransactions returns the posted history, newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListTransactions()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, txs)
}

// UpdateTransaction rewrites a posted entry.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	tx, ok := h.toTransaction(w, req, id)
	if !ok {
		return
	}
	if err := h.svc.UpdateTransaction(tx); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, tx)
}

// DeleteTransaction removes one posted entry.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteTransaction(id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearTransactions removes the whole posted history.
func (h *Handler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearTransactions(); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportCSV ingests a CSV statement from the request body.
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ImportCSV(r.Body)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]int{"imported": n})
}

// ImportOFX ingests an OFX XML statement from the request body.
func (h *Handler) ImportOFX(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ImportOFX(r.Body)
	if err != nil {
		h.error(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(w, http.StatusOK, map[string]int{"imported": n})
}

// CreateSchedule stores a recurrence rule.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	rule, ok := h.decodeSchedule(w, r, 0)
	if !ok {
		return
	}
	if err := h.svc.CreateSchedule(rule); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusCreated, rule)
}

// ListSchedules returns every rule.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.ListSchedules()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, rules)
}

// UpdateSchedule rewrites a rule.
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rule, ok := h.decodeSchedule(w, r, id)
	if !ok {
		return
	}
	if err := h.svc.UpdateSchedule(rule); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, rule)
}

// DeleteSchedule removes a rule.
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSchedule(id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBudgets returns the configured weekly budgets.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.svc.ListBudgets()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, budgets)
}

// SaveBudgets upserts weekly budget amounts.
func (h *Handler) SaveBudgets(w http.ResponseWriter, r *http.Request) {
	var budgets []models.Budget
	if err := json.NewDecoder(r.Body).Decode(&budgets); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.svc.SaveBudgets(budgets); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetBudgets zeroes every weekly budget.
func (h *Handler) ResetBudgets(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetBudgets(); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings returns the starting balance.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	bal, err := h.svc.StartingBalance()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, settingsResponse{StartingBalance: bal})
}

// SaveSettings stores the starting balance.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.svc.SetStartingBalance(req.StartingBalance); err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, req)
}

// Daily returns the balance series for a date range. Both bounds are
// required ISO dates.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	from, err := dates.Parse(r.URL.Query().Get("from"))
	if err != nil {
		h.error(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := dates.Parse(r.URL.Query().Get("to"))
	if err != nil {
		h.error(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}
	points, err := h.svc.Project(from, to)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, toBalancePoints(points))
}

// Calendar returns the projected month; a missing or bad month falls
// back to the current one.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	start, points, err := h.svc.CalendarMonth(r.URL.Query().Get("month"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"month": start.Format("2006-01"),
		"days":  toBalancePoints(points),
	})
}

// Dashboard returns today's balance and per-category weekly budget
// status.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	balance, err := h.svc.CurrentBalance()
	if err != nil {
		h.fail(w, err)
		return
	}
	budgets, err := h.svc.BudgetStatuses()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"balance": balance,
		"budgets": budgets,
	})
}

// Forecast runs the affordability check for a hypothetical purchase.
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	report, err := h.svc.Forecast(req.Price, req.Category, req.TargetDate)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, report)
}

func (h *Handler) toTransaction(w http.ResponseWriter, req transactionRequest, id int64) (*models.Transaction, bool) {
	day, err := dates.Parse(req.Date)
	if err != nil {
		h.error(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &models.Transaction{
		ID:       id,
		Date:     day,
		Kind:     models.ParseKind(req.Kind),
		Amount:   req.Amount,
		Category: req.Category,
		Memo:     req.Memo,
	}, true
}

func (h *Handler) decodeSchedule(w http.ResponseWriter, r *http.Request, id int64) (*models.Rule, bool) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	start, err := dates.Parse(req.StartDate)
	if err != nil {
		h.error(w, http.StatusBadRequest, "start_date: "+err.Error())
		return nil, false
	}
	frequency, err := models.ParseFrequency(req.Frequency)
	if err != nil {
		h.error(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	rule := &models.Rule{
		ID:        id,
		Kind:      models.ParseKind(req.Kind),
		Name:      req.Name,
		Category:  req.Category,
		Amount:    req.Amount,
		Frequency: frequency,
		StartDate: start,
		Active:    true,
	}
	if req.DayOfWeek != nil {
		d := dates.DayOfWeek(*req.DayOfWeek)
		rule.DayOfWeek = &d
	}
	if req.EndDate != "" {
		end, err := dates.Parse(req.EndDate)
		if err != nil {
			h.error(w, http.StatusBadRequest, "end_date: "+err.Error())
			return nil, false
		}
		rule.EndDate = &end
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	return rule, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.error(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func toBalancePoints(points []models.BalancePoint) []balancePoint {
	out := make([]balancePoint, 0, len(points))
	for _, p := range points {
		out = append(out, balancePoint{
			Date:    p.Date.Format("2006-01-02"),
			Income:  p.Income,
			Expense: p.Expense,
			Running: p.Running,
		})
	}
	return out
}

func (h *Handler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) error(w http.ResponseWriter, status int, msg string) {
	h.respond(w, status, map[string]string{"error": msg})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidRule), errors.Is(err, service.ErrInvalidInput):
		h.error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		h.error(w, http.StatusNotFound, err.Error())
	default:
		h.log.Errorf("Request failed: %v", err)
		h.error(w, http.StatusInternalServerError, "internal error")
	}
}
