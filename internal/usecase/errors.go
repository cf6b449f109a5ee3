package usecase

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the API layer.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindInvalidArgument
	KindPermissionDenied
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "internal"
	}
}

// Error is the single error type returned by the workflows in this package.
// Args carries the offending input for InvalidArgument failures.
type Error struct {
	Kind    Kind
	Message string
	Args    any
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

var (
	// Returned by repositories.
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("Username already taken")

	ErrDuplicate = errors.New("duplicate idempotency key")
)

func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "Not authenticated"}
}

func InvalidArgument(msg string, args any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg, Args: args}
}

func PermissionDenied(msg string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: msg}
}

func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf reports the kind of err; anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
