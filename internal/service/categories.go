package service

import (
	"fmt"
	"strings"

	"spendtrack/internal/models"
	"spendtrack/internal/storage"

	"github.com/pkg/errors"
)

// ListCategories returns the user's categories ordered by ID.
func (s *Service) ListCategories(userID int64) ([]models.Category, error) {
	categories, err := s.db.ListCategories(userID)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return categories, nil
}

// AddCategory creates a category for the user. Names are trimmed and
// compared case-sensitively within the user's own categories.
func (s *Service) AddCategory(userID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: category name is required", ErrValidation)
	}

	existing, err := s.db.ListCategories(userID)
	if err != nil {
		return 0, errors.Wrap(err, "add category: list existing")
	}
	for _, c := range existing {
		if c.Name == name {
			return 0, ErrDuplicateCategory
		}
	}

	id, err := s.db.CreateCategory(userID, name)
	if err != nil {
		return 0, errors.Wrap(err, "add category")
	}
	return id, nil
}

// DeleteCategory removes one of the user's categories. Deletion is rejected
// while any expense still references the category.
func (s *Service) DeleteCategory(userID, categoryID int64) error {
	category, err := s.db.GetCategory(categoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "delete category: lookup")
	}
	if category.UserID != userID {
		return ErrForbidden
	}

	count, err := s.db.CategoryExpenseCount(categoryID)
	if err != nil {
		return errors.Wrap(err, "delete category: count expenses")
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	return errors.Wrap(s.db.DeleteCategory(categoryID), "delete category")
}
