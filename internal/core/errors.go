package core

import "errors"

// Kind classifies a domain error; the transport layer maps each kind to
// an HTTP status.
type Kind int

const (
	KindValidation   Kind = iota // malformed client input
	KindUnauthorized             // missing/invalid/consumed credential
	KindNotFound                 // missing row or expired session
	KindConflict                 // duplicate unique key
	KindInternal                 // store or serialization failure
)

// Error is the tagged error type used across services. Sentinel values
// below compare with errors.Is; infrastructure failures are wrapped via
// Internal so the cause is kept for logging but never echoed verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

// Internal wraps an infrastructure failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf extracts the kind from an error chain; unknown errors are
// treated as internal.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// Validation errors, detected before any store call.
var (
	ErrNameRequired        = &Error{Kind: KindValidation, Message: "name required"}
	ErrNameTooShort        = &Error{Kind: KindValidation, Message: "name too short"}
	ErrNameTooLong         = &Error{Kind: KindValidation, Message: "name too long"}
	ErrInvalidEmail        = &Error{Kind: KindValidation, Message: "invalid email"}
	ErrPasswordRequired    = &Error{Kind: KindValidation, Message: "password required"}
	ErrPasswordTooLong     = &Error{Kind: KindValidation, Message: "password too long"}
	ErrWeakPassword        = &Error{Kind: KindValidation, Message: "weak password"}
	ErrInvalidAmount       = &Error{Kind: KindValidation, Message: "invalid amount value"}
	ErrDescriptionRequired = &Error{Kind: KindValidation, Message: "description required"}
	ErrDescriptionTooLong  = &Error{Kind: KindValidation, Message: "description too long"}
	ErrCategoryIDRequired  = &Error{Kind: KindValidation, Message: "category id required"}
	ErrInvalidDate         = &Error{Kind: KindValidation, Message: "invalid date"}
	ErrInvalidCredentials  = &Error{Kind: KindValidation, Message: "invalid credentials"}
)

// Domain errors raised after store calls.
var (
	ErrDuplicateEmail     = &Error{Kind: KindConflict, Message: "duplicate email"}
	ErrCategoryNameExists = &Error{Kind: KindConflict, Message: "name already existing"}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrExpenseNotFound    = &Error{Kind: KindNotFound, Message: "expense not found"}
	ErrCategoryNotFound   = &Error{Kind: KindNotFound, Message: "category not found"}
)
