package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/bomsort/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidRecord = errors.New("invalid change record")
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

func validateRuleSet(rs *model.RuleSet) error {
	if rs == nil {
		return fmt.Errorf("%w: ruleset", ErrNilParameter)
	}
	return nil
}

func validateChangeRecord(record model.ChangeRecord) error {
	if record.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidRecord)
	}
	for i, change := range record.Changes {
		if strings.TrimSpace(change) == "" {
			return fmt.Errorf("%w: change %d is empty", ErrInvalidRecord, i)
		}
	}
	return nil
}
