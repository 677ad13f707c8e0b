package service

import (
	"fmt"
	"strings"

	"spendtrack/internal/auth"
	"spendtrack/internal/models"
	"spendtrack/internal/storage"

	"github.com/pkg/errors"
)

// DefaultCategories are seeded for every new user at registration.
var DefaultCategories = []string{
	"Food",
	"Transportation",
	"Entertainment",
	"Utilities",
	"Shopping",
	"Healthcare",
}

// Service implements the expense-tracking domain operations. Every operation
// takes the acting user's ID explicitly and enforces ownership before
// touching rows.
type Service struct {
	db *storage.DB
}

// New creates a Service backed by the given store.
func New(db *storage.DB) *Service {
	return &Service{db: db}
}

// Register creates a user and seeds the default categories in one
// transaction. The new user is not logged in.
func (s *Service) Register(username, email, password string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return 0, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if email == "" || !strings.Contains(email, "@") {
		return 0, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if password == "" {
		return 0, fmt.Errorf("%w: password is required", ErrValidation)
	}

	// Both uniqueness checks run before any write.
	if _, err := s.db.GetUserByUsername(username); err == nil {
		return 0, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, errors.Wrap(err, "register: lookup username")
	}
	if _, err := s.db.GetUserByEmail(email); err == nil {
		return 0, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, errors.Wrap(err, "register: lookup email")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, errors.Wrap(err, "register: hash password")
	}

	user, err := s.db.CreateUserWithCategories(username, email, hash, DefaultCategories)
	if err != nil {
		return 0, registerCreateErr(err)
	}
	return user.ID, nil
}

// registerCreateErr maps insert failures to domain errors. A concurrent
// registration can win between the uniqueness lookups and the insert, in
// which case the constraint violation surfaces here.
func registerCreateErr(err error) error {
	switch {
	case storage.IsUniqueViolation(err, "users.username"):
		return ErrUsernameTaken
	case storage.IsUniqueViolation(err, "users.email"):
		return ErrEmailTaken
	}
	return errors.Wrap(err, "register: create user")
}

// Login verifies a username/password pair. An unknown username and a wrong
// password produce the same ErrInvalidCredentials.
func (s *Service) Login(username, password string) (*models.User, error) {
	user, err := s.db.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "login: lookup user")
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
