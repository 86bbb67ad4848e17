// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Application error taxonomy. Callers wrap these with %w so the CLI can
// decide how to present a failure with errors.Is.
var (
	// ErrConfig means the rule storage is missing or structurally invalid.
	// No classification can proceed without a ruleset.
	ErrConfig = errors.New("invalid rule configuration")

	// ErrIO means updated rules or the change log could not be written.
	// The in-memory ruleset is kept so the save can be retried.
	ErrIO = errors.New("rule storage write failed")

	// ErrChangeLog means the rules were saved but the change record for
	// the update could not be appended to the change log.
	ErrChangeLog = errors.New("change log write failed")

	// ErrInputFormat means an uploaded spreadsheet could not be read.
	ErrInputFormat = errors.New("malformed input file")
)

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

// Describe returns the message the CLI should print for err. Known
// categories get a hint about what the user can do next.
func Describe(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Error()
	}

	switch {
	case errors.Is(err, ErrConfig):
		return fmt.Sprintf("%v (run 'bomsort rules init' to create a starter ruleset)", err)
	case errors.Is(err, ErrChangeLog):
		return fmt.Sprintf("%v (rules were saved but the change record printed above was not logged)", err)
	case errors.Is(err, ErrIO):
		return fmt.Sprintf("%v (rules were not saved; re-run the update to retry)", err)
	case errors.Is(err, ErrInputFormat):
		return fmt.Sprintf("%v (no rows were classified; check the file and upload again)", err)
	default:
		return err.Error()
	}
}
