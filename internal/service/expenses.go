package service

import (
	"fmt"
	"math"
	"time"

	"spendtrack/internal/models"
	"spendtrack/internal/storage"

	"github.com/pkg/errors"
)

// dateOnly normalizes a timestamp to its calendar date at midnight UTC, the
// form every stored expense date uses.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validateExpenseInput(amount float64, date time.Time) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: amount must be a finite number", ErrValidation)
	}
	if amount < 0 {
		return fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	return nil
}

// checkCategoryOwnership verifies the category exists and belongs to the
// user, so an expense can never attach to another user's category.
func (s *Service) checkCategoryOwnership(userID, categoryID int64) error {
	category, err := s.db.GetCategory(categoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "lookup category")
	}
	if category.UserID != userID {
		return ErrForbidden
	}
	return nil
}

// AddExpense records a new expense for the user and returns its ID.
func (s *Service) AddExpense(userID int64, amount float64, description string, date time.Time, categoryID int64) (int64, error) {
	if err := validateExpenseInput(amount, date); err != nil {
		return 0, err
	}
	if err := s.checkCategoryOwnership(userID, categoryID); err != nil {
		return 0, err
	}

	id, err := s.db.CreateExpense(&models.Expense{
		Amount:      amount,
		Description: description,
		Date:        dateOnly(date),
		UserID:      userID,
		CategoryID:  categoryID,
	})
	if err != nil {
		return 0, errors.Wrap(err, "add expense")
	}
	return id, nil
}

// EditExpense replaces the fields of one of the user's expenses.
func (s *Service) EditExpense(userID, expenseID int64, amount float64, description string, date time.Time, categoryID int64) error {
	expense, err := s.db.GetExpense(expenseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "edit expense: lookup")
	}
	if expense.UserID != userID {
		return ErrForbidden
	}

	if err := validateExpenseInput(amount, date); err != nil {
		return err
	}
	if err := s.checkCategoryOwnership(userID, categoryID); err != nil {
		return err
	}

	expense.Amount = amount
	expense.Description = description
	expense.Date = dateOnly(date)
	expense.CategoryID = categoryID

	return errors.Wrap(s.db.UpdateExpense(expense), "edit expense")
}

// DeleteExpense permanently removes one of the user's expenses.
func (s *Service) DeleteExpense(userID, expenseID int64) error {
	expense, err := s.db.GetExpense(expenseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "delete expense: lookup")
	}
	if expense.UserID != userID {
		return ErrForbidden
	}

	return errors.Wrap(s.db.DeleteExpense(expenseID), "delete expense")
}

// ListExpenses returns all of the user's expenses, most recent date first.
func (s *Service) ListExpenses(userID int64) ([]models.Expense, error) {
	expenses, err := s.db.ListExpenses(userID)
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	return expenses, nil
}
