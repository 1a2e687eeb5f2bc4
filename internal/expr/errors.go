// Package expr compiles guard and action source text into pre-validated
// executable form. Compilation happens once, at spec construction time;
// the per-event dispatch path only walks an already-checked AST or calls
// an already-built closure.
//
// The grammar is deliberately minimal: literals, context field reads,
// the event payload, boolean negation and conjunction/disjunction,
// comparisons, arithmetic, and a fixed clamp operator. No function
// calls, no loops, no side effects beyond an action's single assigned
// field per statement. A richer grammar would make cross-backend parity
// unprovable.
package expr

import (
	"errors"
	"fmt"
)

// CompileError is a construction-time failure: malformed source, an
// unknown context field, an unsupported operator, or a type mismatch.
// A document whose expressions fail to compile never produces a spec.
type CompileError struct {
	// Name is the guard or action name the source belongs to.
	Name string

	// Source is the offending expression text.
	Source string

	// Pos is the byte offset into Source, or -1 when the error is not
	// tied to a position (e.g. a non-boolean guard result).
	Pos int

	Message string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("compile %q: %s at offset %d in %q", e.Name, e.Message, e.Pos, e.Source)
	}
	return fmt.Sprintf("compile %q: %s in %q", e.Name, e.Message, e.Source)
}

// IsCompileError reports whether err is (or wraps) a CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// EvalError is a runtime evaluation failure: a context field's actual
// type diverged from what the compiled expression expects. This
// indicates a defect in spec validation, not a recoverable condition;
// the machine core guarantees it surfaces before any mutation commits.
type EvalError struct {
	Name    string
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %q: %s", e.Name, e.Message)
}

// IsEvalError reports whether err is (or wraps) an EvalError.
func IsEvalError(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee)
}

func compileErrf(name, source string, pos int, format string, args ...any) *CompileError {
	return &CompileError{Name: name, Source: source, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func evalErrf(name, format string, args ...any) *EvalError {
	return &EvalError{Name: name, Message: fmt.Sprintf(format, args...)}
}
