package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so transports can map it to a response.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindInvalidTransition Kind = "invalid_transition"
	KindConflict          Kind = "conflict"
	KindConfiguration     Kind = "configuration"
	KindPayment           Kind = "payment"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
)

// Error is the single error type returned by the domain and application layers.
// Code is a stable machine-readable reason (e.g. "refund_window_expired").
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError reports malformed input.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: "validation_failed", Message: message}
}

// NewInvalidStateError reports a status transition that the state machine forbids.
func NewInvalidStateError(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Code:    "invalid_transition",
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewInvalidTransitionError reports a rejected command with a specific reason code.
func NewInvalidTransitionError(code, message string) *Error {
	return &Error{Kind: KindInvalidTransition, Code: code, Message: message}
}

// NewConflictError reports a concurrent or duplicate modification.
func NewConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// NewConfigurationError reports data that needs manual reconciliation.
func NewConfigurationError(code, message string) *Error {
	return &Error{Kind: KindConfiguration, Code: code, Message: message}
}

// NewPaymentError wraps a failed capture or refund call.
func NewPaymentError(code string, err error) *Error {
	return &Error{Kind: KindPayment, Code: code, Message: "payment operation failed", Err: err}
}

// NewNotFoundError reports an unknown entity.
func NewNotFoundError(resource, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    "not_found",
		Message: fmt.Sprintf("%s %s not found", resource, id),
	}
}

// NewForbiddenError reports an actor not allowed to run a command.
func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Code: "forbidden", Message: message}
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// CodeOf returns the reason code of a domain error, or "" for other errors.
func CodeOf(err error) string {
	var target *Error
	if errors.As(err, &target) {
		return target.Code
	}
	return ""
}

// AsError extracts the domain error from err's chain.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
