package journal

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrPositionNotClosed     = errors.New("position is not closed")
	ErrPositionAlreadyExists = errors.New("position is already in the account history")
	ErrTemporalDisturbance   = errors.New("account history already has a newer row")
	ErrInvalidOperation      = errors.New("operation cannot be posted as a plain history row")
	ErrNotFound              = errors.New("not found")
	ErrPositionClosed        = errors.New("position is already closed")
	ErrInvalid               = errors.New("invalid input")
)

// Error carries one of the kinds above. Message replaces the kind's default
// text when set.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }

func errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Reason returns a short label for the kind of err, used for metrics and
// logs. Errors outside the ledger taxonomy report "internal".
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrPositionNotClosed):
		return "position_not_closed"
	case errors.Is(err, ErrPositionAlreadyExists):
		return "position_already_exists"
	case errors.Is(err, ErrTemporalDisturbance):
		return "temporal_disturbance"
	case errors.Is(err, ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPositionClosed):
		return "position_closed"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	}
	return "internal"
}
