// Package compiler turns machine documents into immutable runtime
// specs: structural schema check, referential validation, expression
// compilation, then spec assembly. Validation collects every error it
// can find rather than failing fast, so authors fix a document in one
// round trip.
package compiler

import (
	"fmt"

	"github.com/rubigo-ui/rubigo/internal/ir"
)

// Validation error codes (E001-E199)
const (
	// Document errors (E001-E099)
	ErrDocUnreadable = "E001" // document is not valid JSON for the expected shape
	ErrDocSchema     = "E002" // document violates the structural schema

	// Referential errors (E101-E109)
	ErrMissingID      = "E101" // machine.id is required
	ErrUnknownInitial = "E102" // initial state not declared
	ErrUnknownTarget  = "E103" // transition targets undeclared state
	ErrUnknownGuard   = "E104" // transition names undeclared guard
	ErrUnknownAction  = "E105" // transition names undeclared action
	ErrNoStates       = "E106" // machine declares no states
	ErrNoContext      = "E107" // machine declares no context fields

	// Expression errors (E110-E119)
	ErrGuardCompile  = "E110" // guard source failed to compile
	ErrActionCompile = "E111" // action source failed to compile
)

// ValidationError represents one document validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a parsed document's referential integrity.
// Returns all errors found (does not fail-fast). Expression sources
// are not compiled here; Compile reports those as E110/E111.
func Validate(doc *ir.Document) []ValidationError {
	var errs []ValidationError

	// E101: id is required
	if doc.Machine.ID == "" {
		errs = append(errs, ValidationError{
			Field:   "machine.id",
			Message: "machine id is required and must be non-empty",
			Code:    ErrMissingID,
		})
	}

	// E106: at least one state required
	if len(doc.Machine.States) == 0 {
		errs = append(errs, ValidationError{
			Field:   "machine.states",
			Message: "at least one state is required",
			Code:    ErrNoStates,
		})
	}

	// E107: at least one context field required
	if len(doc.Context) == 0 {
		errs = append(errs, ValidationError{
			Field:   "context",
			Message: "at least one context field is required",
			Code:    ErrNoContext,
		})
	}

	// E102: initial must be a declared state
	if _, ok := doc.Machine.States[doc.Machine.Initial]; !ok && len(doc.Machine.States) > 0 {
		errs = append(errs, ValidationError{
			Field:   "machine.initial",
			Message: fmt.Sprintf("initial state %q is not declared", doc.Machine.Initial),
			Code:    ErrUnknownInitial,
		})
	}

	for _, state := range doc.Machine.StateNames() {
		st := doc.Machine.States[state]
		for _, event := range st.EventNames() {
			tr := st.On[event]
			path := fmt.Sprintf("machine.states.%s.on.%s", state, event)

			// E103: target must be a declared state
			if _, ok := doc.Machine.States[tr.Target]; !ok {
				errs = append(errs, ValidationError{
					Field:   path + ".target",
					Message: fmt.Sprintf("target state %q is not declared", tr.Target),
					Code:    ErrUnknownTarget,
				})
			}

			// E104: guard reference must resolve
			if tr.Guard != "" {
				if _, ok := doc.Guards[tr.Guard]; !ok {
					errs = append(errs, ValidationError{
						Field:   path + ".guard",
						Message: fmt.Sprintf("guard %q is not declared", tr.Guard),
						Code:    ErrUnknownGuard,
					})
				}
			}

			// E105: every action reference must resolve
			for i, name := range tr.Actions {
				if _, ok := doc.Actions[name]; !ok {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("%s.actions[%d]", path, i),
						Message: fmt.Sprintf("action %q is not declared", name),
						Code:    ErrUnknownAction,
					})
				}
			}
		}
	}

	return errs
}
