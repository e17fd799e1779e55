// Package apperr classifies failures so the HTTP layer can map them to status codes.
//
// Client input problems are detected before any predictor is called and are safe to
// echo back to the caller. Predictor and catalog failures are logged and reported as a
// generic service error.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrClientInput marks a request that can never succeed as sent.
	ErrClientInput = errors.New("invalid input")
	// ErrPredictor marks a failure of an external model.
	ErrPredictor = errors.New("predictor failure")
	// ErrCatalog marks a catalog that could not be loaded.
	ErrCatalog = errors.New("catalog unavailable")
)

// inputError carries a caller-facing message while still matching ErrClientInput.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Is(target error) bool { return target == ErrClientInput }

// Input returns a client input error with a formatted, caller-facing message.
func Input(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

// Predictor wraps err as a predictor failure. A nil err stays nil.
func Predictor(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPredictor, err)
}

// Catalog wraps err as a catalog failure. A nil err stays nil.
func Catalog(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrCatalog, err)
}

// IsClientInput reports whether err should be answered with a 4xx status.
func IsClientInput(err error) bool {
	return errors.Is(err, ErrClientInput)
}
