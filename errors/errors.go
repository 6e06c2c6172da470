// Package errors provides error handling for courier.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check expected correlation outcomes
//	if errors.IsDuplicatePrompt(err) {
//	    // at-least-once redelivery, drop silently
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Sentinel errors for the prompt correlation taxonomy.
//
// The first four are expected, recoverable outcomes of an at-least-once,
// loosely coupled chat integration. Callers treat them as silent no-ops
// (log at DEBUG at most), never as user-visible failures. Anything else is
// unexpected and propagates unmodified.
var (
	// ErrIdentityNotResolved indicates the external workspace/team has no
	// mapping to an internal user and organization.
	ErrIdentityNotResolved = New("identity not resolved")

	// ErrAgentNotFound indicates no agent is configured for the channel.
	// An unconfigured channel is a valid state, not a failure.
	ErrAgentNotFound = New("agent not found")

	// ErrDuplicatePrompt indicates a prompt already exists for the
	// (channel, message timestamp) dedup key. This is the idempotency
	// guarantee against redelivery, not a bug.
	ErrDuplicatePrompt = New("duplicate prompt")

	// ErrPromptNotFound indicates the referenced prompt does not exist.
	ErrPromptNotFound = New("prompt not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")
)

// IsIdentityNotResolved checks if an error is or wraps ErrIdentityNotResolved
func IsIdentityNotResolved(err error) bool {
	return err != nil && Is(err, ErrIdentityNotResolved)
}

// IsAgentNotFound checks if an error is or wraps ErrAgentNotFound
func IsAgentNotFound(err error) bool {
	return err != nil && Is(err, ErrAgentNotFound)
}

// IsDuplicatePrompt checks if an error is or wraps ErrDuplicatePrompt
func IsDuplicatePrompt(err error) bool {
	return err != nil && Is(err, ErrDuplicatePrompt)
}

// IsPromptNotFound checks if an error is or wraps ErrPromptNotFound
func IsPromptNotFound(err error) bool {
	return err != nil && Is(err, ErrPromptNotFound)
}

// IsInvalidRequest checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequest(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsExpected reports whether err is one of the expected correlation
// outcomes. Expected errors are dropped by event handlers; unexpected
// errors propagate to the transport layer.
func IsExpected(err error) bool {
	if err == nil {
		return false
	}
	return IsAny(err,
		ErrIdentityNotResolved,
		ErrAgentNotFound,
		ErrDuplicatePrompt,
		ErrPromptNotFound,
	)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
