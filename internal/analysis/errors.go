package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidAssumptions = errors.New("invalid assumptions")
)

// ValidationError rejects a property before any computation runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MissingMarketDataError records a snapshot field that fell back to its
// default. It is reported as a warning and never aborts an analysis.
type MissingMarketDataError struct {
	Field string
}

func (e *MissingMarketDataError) Error() string {
	return fmt.Sprintf("market data missing %s, using default", e.Field)
}
