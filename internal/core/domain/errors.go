package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrEmptyInput    = errors.New("empty analysis input")
	ErrScoring       = errors.New("confidence scoring failed")
	ErrCaseNotFound  = errors.New("case not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotReady      = errors.New("analysis result not ready")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
