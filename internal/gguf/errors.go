package gguf

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated         = errors.New("gguf: truncated input")
	ErrBadMagic          = errors.New("gguf: bad magic")
	ErrInvalidUTF8       = errors.New("gguf: invalid utf-8 string")
	ErrInvalidBool       = errors.New("gguf: invalid bool")
	ErrUnknownValueType  = errors.New("gguf: unknown value type")
	ErrUnknownTensorType = errors.New("gguf: unknown tensor type")
	ErrTooDeep           = errors.New("gguf: array nesting too deep")

	// ErrImplausibleLength reports a declared length that cannot fit in the
	// bytes left in the stream. It also matches ErrTruncated, since such a
	// length means the stream ends before the field does.
	ErrImplausibleLength = fmt.Errorf("gguf: implausible length: %w", ErrTruncated)
)

// DecodeError records where in the stream a decode step failed.
type DecodeError struct {
	Op     string
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnknownTypeError carries the unrecognised tag of a value or tensor type.
// It unwraps to ErrUnknownValueType or ErrUnknownTensorType.
type UnknownTypeError struct {
	Tag  uint32
	kind error
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%v %d", e.kind, e.Tag)
}

func (e *UnknownTypeError) Unwrap() error {
	return e.kind
}

// Kind returns the short name of the sentinel err wraps, or "" if it wraps none.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrBadMagic):
		return "bad_magic"
	case errors.Is(err, ErrInvalidUTF8):
		return "invalid_utf8"
	case errors.Is(err, ErrInvalidBool):
		return "invalid_bool"
	case errors.Is(err, ErrUnknownValueType):
		return "unknown_value_type"
	case errors.Is(err, ErrUnknownTensorType):
		return "unknown_tensor_type"
	case errors.Is(err, ErrTooDeep):
		return "too_deep"
	// ErrImplausibleLength also matches ErrTruncated, so it goes first.
	case errors.Is(err, ErrImplausibleLength):
		return "implausible_length"
	case errors.Is(err, ErrTruncated):
		return "truncated"
	default:
		return ""
	}
}
