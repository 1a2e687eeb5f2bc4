package compiler

import (
	"fmt"
	"sort"

	"github.com/rubigo-ui/rubigo/internal/expr"
	"github.com/rubigo-ui/rubigo/internal/ir"
	"github.com/rubigo-ui/rubigo/internal/machine"
)

// Compile turns raw document bytes into an immutable machine spec.
// The pipeline is schema check, referential validation, expression
// compilation, spec assembly. Every stage collects all the errors it
// can before the pipeline stops, so a broken document reports its
// whole story at once.
func Compile(data []byte) (*machine.Spec, []ValidationError) {
	if errs := CheckSchema(data); len(errs) > 0 {
		return nil, errs
	}

	doc, err := ir.ParseDocument(data)
	if err != nil {
		return nil, []ValidationError{{
			Field:   "document",
			Message: err.Error(),
			Code:    ErrDocUnreadable,
		}}
	}

	return CompileDocument(doc)
}

// CompileDocument compiles an already parsed document. Used by callers
// that decode the document themselves (the harness, tests).
func CompileDocument(doc *ir.Document) (*machine.Spec, []ValidationError) {
	errs := Validate(doc)

	fields := make(map[string]ir.Kind, len(doc.Context))
	for name, v := range doc.Context {
		fields[name] = v.Kind()
	}

	guards := make(map[string]*expr.Guard, len(doc.Guards))
	for _, name := range sortedKeys(doc.Guards) {
		g, err := expr.CompileGuard(name, doc.Guards[name], fields)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   "guards." + name,
				Message: err.Error(),
				Code:    ErrGuardCompile,
			})
			continue
		}
		guards[name] = g
	}

	actions := make(map[string]*expr.Action, len(doc.Actions))
	for _, name := range sortedKeys(doc.Actions) {
		a, err := expr.CompileAction(name, doc.Actions[name].Mutation, fields)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   "actions." + name,
				Message: err.Error(),
				Code:    ErrActionCompile,
			})
			continue
		}
		actions[name] = a
	}

	if len(errs) > 0 {
		return nil, errs
	}

	fingerprint, err := doc.Fingerprint()
	if err != nil {
		return nil, []ValidationError{{
			Field:   "document",
			Message: err.Error(),
			Code:    ErrDocUnreadable,
		}}
	}

	var transitions []machine.Transition
	for _, state := range doc.Machine.StateNames() {
		st := doc.Machine.States[state]
		for _, event := range st.EventNames() {
			tr := st.On[event]
			mt := machine.Transition{
				Event:  event,
				Source: state,
				Target: tr.Target,
			}
			if tr.Guard != "" {
				mt.GuardName = tr.Guard
				mt.Guard = guards[tr.Guard]
			}
			for _, name := range tr.Actions {
				mt.ActionNames = append(mt.ActionNames, name)
				mt.Actions = append(mt.Actions, actions[name])
			}
			transitions = append(transitions, mt)
		}
	}

	spec, err := machine.NewSpec(machine.SpecConfig{
		ID:          doc.Machine.ID,
		Initial:     doc.Machine.Initial,
		States:      doc.Machine.StateNames(),
		Defaults:    doc.Context,
		Guards:      guards,
		Actions:     actions,
		Transitions: transitions,
		Fingerprint: fingerprint,
	})
	if err != nil {
		return nil, []ValidationError{{
			Field:   "machine",
			Message: fmt.Sprintf("spec assembly failed: %v", err),
			Code:    ErrDocSchema,
		}}
	}
	return spec, nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
