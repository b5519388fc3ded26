package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is wrapped by every InvalidParameterError.
	ErrInvalidParameter = errors.New("chain: invalid parameter")
	// ErrNodeAbsent is returned when updating a node the chain does not
	// contain.
	ErrNodeAbsent = errors.New("chain: node not present")
)

// InvalidParameterError reports an out-of-range node parameter. It is
// returned by Build and by live updates; in both cases nothing is changed.
type InvalidParameterError struct {
	Kind   Kind
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("chain: invalid %s %s %g: %s", e.Kind, e.Field, e.Value, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }

func invalid(kind Kind, field string, v float64, format string, args ...any) error {
	return &InvalidParameterError{Kind: kind, Field: field, Value: v, Reason: fmt.Sprintf(format, args...)}
}
