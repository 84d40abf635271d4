package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kassa-bot/kassa/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidID       = errors.New("id must be positive")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidUser     = errors.New("invalid user")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateID ensures an identifier is positive.
func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidID, paramName)
	}
	return nil
}

// validateUser validates a user before it reaches the database.
func validateUser(user *model.User) error {
	if user == nil {
		return fmt.Errorf("%w: user", ErrNilParameter)
	}
	if user.Username == "" {
		return fmt.Errorf("%w: missing username", ErrInvalidUser)
	}
	if user.Email == "" {
		return fmt.Errorf("%w: missing email", ErrInvalidUser)
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("%w: missing password hash", ErrInvalidUser)
	}
	return nil
}

// validateCategory validates a category before it reaches the database.
func validateCategory(category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if category.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	if !category.Kind.Valid() {
		return fmt.Errorf("%w: bad kind %q", ErrInvalidCategory, category.Kind)
	}
	if category.UserID <= 0 {
		return fmt.Errorf("%w: missing owner", ErrInvalidCategory)
	}
	return nil
}
