// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrForbidden      = errors.New("forbidden")

	// Voice pipeline errors.
	ErrUnclassifiableType   = errors.New("transaction type not recognized")
	ErrAmountNotFound       = errors.New("amount not found")
	ErrCategoryTextNotFound = errors.New("category text not found")
	ErrNoCategoryMatch      = errors.New("no matching category")
	ErrInvalidSelection     = errors.New("invalid category selection")
	ErrTranscription        = errors.New("speech recognition failed")

	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsParseFailure reports whether err is one of the transcript parsing
// failures. These return the conversation to idle with an explanatory
// message; they are never retried automatically.
func IsParseFailure(err error) bool {
	return errors.Is(err, ErrUnclassifiableType) ||
		errors.Is(err, ErrAmountNotFound) ||
		errors.Is(err, ErrCategoryTextNotFound)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
