package canio

import (
	"errors"
	"fmt"
)

// Kind classifies an I/O error.
//
// This list is intended to grow over time and it is not recommended to
// exhaustively match against it: always keep a default branch.
type Kind uint8

const (
	// Other is any error not covered by another kind.
	Other Kind = iota
	// BufferExhausted means the transmit buffer is full or the receive
	// buffer is empty. The operation may be retried.
	BufferExhausted
	// InvalidInput means the caller supplied a malformed argument.
	InvalidInput
	// ErrorDetectionCode means a parity, CRC or framing check failed on
	// reception.
	ErrorDetectionCode
)

func (k Kind) String() string {
	switch k {
	case BufferExhausted:
		return "buffer exhausted"
	case InvalidInput:
		return "invalid input"
	case ErrorDetectionCode:
		return "error detection code"
	default:
		return "other"
	}
}

// Error is the common error type drivers return from Write and ReadUntil.
// Err carries the driver's native cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

var (
	ErrBufferExhausted    = &Error{Kind: BufferExhausted}
	ErrInvalidInput       = &Error{Kind: InvalidInput}
	ErrErrorDetectionCode = &Error{Kind: ErrorDetectionCode}
	ErrOther              = &Error{Kind: Other}
)

// NewError wraps err with the given kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is NewError with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	s := "canio: "
	if e.Op != "" {
		s += e.Op + ": "
	}
	s += e.Kind.String()
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrBufferExhausted)
// holds for every exhausted error however it was produced.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// IsExhausted reports whether err is a transient BufferExhausted error. Only
// the first *Error in the chain counts, so an InvalidInput error caused by
// an exhausted buffer is not retryable.
func IsExhausted(err error) bool {
	return KindOf(err) == BufferExhausted
}
