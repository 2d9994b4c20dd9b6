package service

import "errors"

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Error is a failure the caller can act on. Anything else coming out of the
// service is a server error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation   = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "conflict"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
)

func invalid(msg string) error      { return &Error{Kind: KindValidation, Message: msg} }
func notFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }
func unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Forbidden builds a KindForbidden error.
func Forbidden(msg string) error { return &Error{Kind: KindForbidden, Message: msg} }
