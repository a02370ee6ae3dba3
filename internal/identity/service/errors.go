package service

import "errors"

// Status is the outward category of a credential service failure.
type Status string

const (
	StatusConflict     Status = "conflict"
	StatusNotFound     Status = "not_found"
	StatusUnauthorized Status = "unauthorized"
	StatusInternal     Status = "internal"
)

// Error is the only error type returned by CredentialService. Message is safe to show
// to callers; the wrapped cause is for logs only.
type Error struct {
	Status  Status
	Message string
	cause   error
}

// Sentinel errors; compare with errors.Is.
var (
	ErrUserAlreadyExists  = &Error{Status: StatusConflict, Message: "user already exists"}
	ErrInvalidCredentials = &Error{Status: StatusNotFound, Message: "user/password not valid"}
	ErrInvalidToken       = &Error{Status: StatusUnauthorized, Message: "invalid token"}
	ErrInternal           = &Error{Status: StatusInternal, Message: "internal error"}
)

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same status and message,
// so a wrapped failure still matches its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status == e.Status && t.Message == e.Message
}

// wrap returns a copy of kind carrying cause.
func wrap(kind *Error, cause error) *Error {
	return &Error{Status: kind.Status, Message: kind.Message, cause: cause}
}

// AsError converts any error into a taxonomy error. Errors that did not come from
// CredentialService become ErrInternal with the original kept as cause.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return wrap(ErrInternal, err)
}
