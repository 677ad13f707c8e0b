package service

import (
	"time"

	"spendtrack/internal/models"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
)

const recentExpenseLimit = 5

// monthWindow returns the month-to-date window for a reference date: from
// the first day of its month through the date itself, inclusive.
func monthWindow(ref time.Time) (from, to time.Time) {
	to = dateOnly(ref)
	from = now.With(to).BeginningOfMonth()
	return from, to
}

// MonthlyReport assembles the dashboard data for a user: month-to-date total
// and per-category breakdown, the most recent expenses overall, and the top
// spending category.
func (s *Service) MonthlyReport(userID int64, ref time.Time) (*models.MonthlyReport, error) {
	from, to := monthWindow(ref)

	total, err := s.db.SumExpenses(userID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "monthly report: total")
	}

	byCategory, err := s.db.CategoryTotals(userID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "monthly report: category totals")
	}

	recent, err := s.db.RecentExpenses(userID, recentExpenseLimit)
	if err != nil {
		return nil, errors.Wrap(err, "monthly report: recent expenses")
	}

	return &models.MonthlyReport{
		Total:       total,
		ByCategory:  byCategory,
		Recent:      recent,
		TopCategory: topCategory(byCategory),
	}, nil
}

// topCategory picks the highest-spending entry; equal totals resolve to the
// lexicographically smaller name. Returns nil when there is no activity.
func topCategory(totals []models.CategoryTotal) *models.CategoryTotal {
	var top *models.CategoryTotal
	for i := range totals {
		ct := &totals[i]
		if top == nil || ct.Total > top.Total || (ct.Total == top.Total && ct.Name < top.Name) {
			top = ct
		}
	}
	if top == nil {
		return nil
	}
	result := *top
	return &result
}

// MonthlyStats returns the month-to-date expense count and total for a user.
func (s *Service) MonthlyStats(userID int64, ref time.Time) (*models.MonthlyStats, error) {
	from, to := monthWindow(ref)

	count, total, err := s.db.CountAndSumExpenses(userID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "monthly stats")
	}
	return &models.MonthlyStats{Total: total, Count: count}, nil
}
