package dynamics

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is wrapped by every setter validation failure.
var ErrOutOfRange = errors.New("dynamics: parameter out of range")

type rangeError struct {
	kind  string
	param string
	value float64
	lo    float64
	hi    float64
}

func (e *rangeError) Error() string {
	return fmt.Sprintf("%s %s must be in [%g, %g]: %g", e.kind, e.param, e.lo, e.hi, e.value)
}

func (e *rangeError) Unwrap() error { return ErrOutOfRange }

func checkRange(kind, param string, v, lo, hi float64) error {
	if v < lo || v > hi || v != v {
		return &rangeError{kind: kind, param: param, value: v, lo: lo, hi: hi}
	}

	return nil
}
