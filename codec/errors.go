package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for formats that cannot be decoded.
	ErrUnsupportedFormat = errors.New("codec: unsupported format")
	// ErrCorruptData is returned for malformed or truncated input.
	ErrCorruptData = errors.New("codec: corrupt data")
)

// DecodeError describes a failed decode. No partial buffer is returned with
// it. Err wraps ErrUnsupportedFormat or ErrCorruptData.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func corrupt(f Format, format string, args ...any) error {
	return &DecodeError{Format: f, Err: fmt.Errorf("%w: %s", ErrCorruptData, fmt.Sprintf(format, args...))}
}

func unsupported(f Format, format string, args ...any) error {
	return &DecodeError{Format: f, Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, fmt.Sprintf(format, args...))}
}
