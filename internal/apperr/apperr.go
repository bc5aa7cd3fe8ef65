// Package apperr defines the error kinds shared by the storage, gateway and
// HTTP layers.
package apperr

import "errors"

// Kind is a machine-readable error category.
type Kind string

const (
	KindInvalidImage  Kind = "invalid_image"
	KindNotFound      Kind = "not_found"
	KindTokenInvalid  Kind = "token_invalid"
	KindDuplicateName Kind = "duplicate_name"
	KindStoreIO       Kind = "store_io"
	KindValidation    Kind = "validation"
	KindInternal      Kind = "internal"
)

// Sentinels for errors.Is checks. Errors built with New or Wrap match the
// sentinel of their kind.
var (
	ErrInvalidImage  = &Error{Kind: KindInvalidImage, Message: "invalid image"}
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "not found"}
	ErrTokenInvalid  = &Error{Kind: KindTokenInvalid, Message: "invalid or expired token"}
	ErrDuplicateName = &Error{Kind: KindDuplicateName, Message: "duplicate name"}
	ErrStoreIO       = &Error{Kind: KindStoreIO, Message: "storage failure"}
	ErrValidation    = &Error{Kind: KindValidation, Message: "validation failed"}
)

// Error carries a kind, a human message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an error of the given kind wrapping err.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the human message of the first *Error in err's chain.
// Errors without a kind get a generic message so internals never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
