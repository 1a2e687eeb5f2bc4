package machine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a failure detected while operating on a
// machine instance. These indicate defects (spec validation let
// something through) or misuse of the privileged write paths. An
// ordinary unhandled event is the defined handled=false outcome, not
// an error.
//
// Any RuntimeError raised during Send leaves the instance at its exact
// pre-call (state, context) pair.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Machine is the owning spec's id.
	Machine string

	// State is the instance's state when the error occurred.
	State string

	// Event is the event being dispatched, if any.
	Event string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeEvalFailed indicates a guard or action failed to evaluate
	// (a context field's runtime type diverged from its declared type).
	ErrCodeEvalFailed RuntimeErrorCode = "EVAL_FAILED"

	// ErrCodeUnknownState indicates a force-sync or reset named a state
	// that does not exist in the spec.
	ErrCodeUnknownState RuntimeErrorCode = "UNKNOWN_STATE"

	// ErrCodeUnknownField indicates a privileged write named a context
	// field the spec does not declare.
	ErrCodeUnknownField RuntimeErrorCode = "UNKNOWN_FIELD"

	// ErrCodeTypeMismatch indicates a privileged write supplied a value
	// whose kind differs from the field's declared kind.
	ErrCodeTypeMismatch RuntimeErrorCode = "TYPE_MISMATCH"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("%s: %s (machine=%s, state=%s, event=%s)", e.Code, e.Message, e.Machine, e.State, e.Event)
	}
	return fmt.Sprintf("%s: %s (machine=%s, state=%s)", e.Code, e.Message, e.Machine, e.State)
}

// IsEvalError reports whether err is an evaluation failure.
// Uses errors.As to handle wrapped errors.
func IsEvalError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeEvalFailed
	}
	return false
}
