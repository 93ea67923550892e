package facts

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transports.
type Kind string

const (
	KindInvalidArgument Kind = "InvalidArgument"
	KindInternal        Kind = "Internal"
)

// Error is a classified failure. Unmatched queries are never errors.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidArgument)
// holds for every invalid-argument failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// ErrInvalidArgument is the sentinel for errors.Is checks.
var ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}

func invalidArgument(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument builds an invalid-argument error for callers decoding
// requests outside this package.
func InvalidArgument(format string, args ...interface{}) error {
	return invalidArgument(format, args...)
}

// KindOf returns the kind carried by err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
