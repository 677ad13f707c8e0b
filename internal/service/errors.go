package service

import "errors"

// Failure classes returned by the domain service. Callers dispatch with
// errors.Is; the transport layer maps each to a status code.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrCategoryInUse      = errors.New("category has existing expenses")
	ErrValidation         = errors.New("invalid input")
)
