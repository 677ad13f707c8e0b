package handlers

import (
	"net/http"
	"strconv"
	"time"
)

// expenseRequest is the JSON body for creating or updating an expense.
// Date is a calendar date in YYYY-MM-DD form.
type expenseRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	CategoryID  int64   `json:"category_id"`
}

func parseExpenseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "date must be in YYYY-MM-DD format"})
		return time.Time{}, false
	}
	return date, true
}

// ListExpenses returns all of the user's expenses, most recent first.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	expenses, err := h.svc.ListExpenses(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// CreateExpense records a new expense.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, ok := parseExpenseDate(w, req.Date)
	if !ok {
		return
	}

	id, err := h.svc.AddExpense(user.ID, req.Amount, req.Description, date, req.CategoryID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idBody{ID: id})
}

// UpdateExpense replaces the fields of an existing expense.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid expense id"})
		return
	}

	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, ok := parseExpenseDate(w, req.Date)
	if !ok {
		return
	}

	if err := h.svc.EditExpense(user.ID, id, req.Amount, req.Description, date, req.CategoryID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteExpense permanently removes an expense.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid expense id"})
		return
	}

	if err := h.svc.DeleteExpense(user.ID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
