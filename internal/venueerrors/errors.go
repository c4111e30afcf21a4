// Package venueerrors provides the single structured error type used by
// the matching engine, account ledger and subscription registry for
// business failures (validation, balance, not-found, auth, invariant).
// It replaces exception-driven control flow in the original source with
// typed results. Errors from configuration loading, the event bus, the
// replay controller and context cancellation are plain Go errors, not
// *Error.
package venueerrors

import (
	"errors"
	"fmt"
	"time"
)

// Kind is one of the venue's closed error categories.
type Kind string

const (
	Validation           Kind = "VALIDATION"
	InsufficientBalance  Kind = "INSUFFICIENT_BALANCE"
	NoLiquidity          Kind = "NO_LIQUIDITY"
	StpExpire            Kind = "STP_EXPIRE"
	NotFound             Kind = "NOT_FOUND"
	Forbidden            Kind = "FORBIDDEN"
	Auth                 Kind = "AUTH"
	Invariant            Kind = "INVARIANT"
	AlreadyTerminal      Kind = "ALREADY_TERMINAL"
)

// Error is the venue's structured error type.
type Error struct {
	Kind      Kind
	Reason    string
	Details   map[string]any
	Cause     error
	Timestamp time.Time
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (caused by: %v)", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithDetail attaches a diagnostic field and returns the receiver for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches an underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// New constructs an *Error of the given kind.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason, Timestamp: time.Now()}
}

// Is reports whether err is a *Error of the given kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var ve *Error
	if !errors.As(err, &ve) {
		return false
	}
	return ve.Kind == kind
}

// KindOf extracts the Kind from err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	if ve, ok := err.(*Error); ok {
		return ve.Kind
	}
	return ""
}
