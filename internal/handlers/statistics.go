package handlers

import (
	"net/http"
	"time"
)

// Dashboard returns the month-to-date report for the current user: total,
// per-category breakdown, recent expenses and top category.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	report, err := h.svc.MonthlyReport(user.ID, time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// MonthlyStats returns the month-to-date expense count and total.
func (h *Handlers) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	stats, err := h.svc.MonthlyStats(user.ID, time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
