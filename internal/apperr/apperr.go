package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP layer. Handlers map kinds to
// status codes; internal errors never leak past this taxonomy.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindInvalidTransition
	KindStorage
	KindTransientTransfer
)

// Error is a tagged application error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing input. Validation errors never
// mutate state.
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown id.
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports a state machine violation.
func InvalidTransition(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidTransition, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure. Storage errors are propagated,
// never swallowed.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStorage, Msg: "storage unavailable", Err: err}
}

// TransientTransfer wraps a failed download attempt. The task is marked
// failed; the manager keeps running.
func TransientTransfer(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindTransientTransfer, Msg: "transfer failed", Err: err}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsInvalidTransition reports whether err is a state machine violation.
func IsInvalidTransition(err error) bool { return IsKind(err, KindInvalidTransition) }

// IsStorage reports whether err is a persistence failure.
func IsStorage(err error) bool { return IsKind(err, KindStorage) }
