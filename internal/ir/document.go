package ir

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Document is the wire contract for one component type: a generated
// JSON document carrying the machine shape, the context defaults, and
// the guard/action source text. The engine only consumes this format;
// producing it from higher-level authoring documents happens upstream.
type Document struct {
	Machine MachineDoc           `json:"machine"`
	Context Context              `json:"context"`
	Guards  map[string]string    `json:"guards,omitempty"`
	Actions map[string]ActionDoc `json:"actions,omitempty"`
}

// MachineDoc is the machine section of a Document.
type MachineDoc struct {
	ID      string              `json:"id"`
	Initial string              `json:"initial"`
	States  map[string]StateDoc `json:"states"`
}

// StateNames returns the declared state names, sorted. Map iteration
// order never leaks into validation output or compiled specs.
func (m *MachineDoc) StateNames() []string {
	out := make([]string, 0, len(m.States))
	for name := range m.States {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// StateDoc holds one state's transition table, keyed by event name.
type StateDoc struct {
	On map[string]TransitionDoc `json:"on,omitempty"`
}

// EventNames returns the state's accepted event names, sorted.
func (s StateDoc) EventNames() []string {
	out := make([]string, 0, len(s.On))
	for name := range s.On {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TransitionDoc describes one transition. On the wire it is either a
// bare target-state string or a full object; both shapes occur in
// generated documents.
type TransitionDoc struct {
	Target  string   `json:"target"`
	Guard   string   `json:"guard,omitempty"`
	Actions []string `json:"actions,omitempty"`
}

// UnmarshalJSON accepts the shorthand string form ("stateName") as well
// as the full object form.
func (t *TransitionDoc) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var target string
		if err := json.Unmarshal(data, &target); err != nil {
			return err
		}
		*t = TransitionDoc{Target: target}
		return nil
	}

	type plain TransitionDoc
	var full plain
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*t = TransitionDoc(full)
	return nil
}

// ActionDoc is an action definition. On the wire it is either the bare
// mutation source text or an object with a "mutation" field plus
// optional authoring metadata.
type ActionDoc struct {
	Mutation    string   `json:"mutation"`
	Description string   `json:"description,omitempty"`
	Emits       []string `json:"emits,omitempty"`
}

// UnmarshalJSON accepts both the bare-string and the object form.
func (a *ActionDoc) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var mutation string
		if err := json.Unmarshal(data, &mutation); err != nil {
			return err
		}
		*a = ActionDoc{Mutation: mutation}
		return nil
	}

	type plain ActionDoc
	var full plain
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*a = ActionDoc(full)
	return nil
}

// ParseDocument decodes a machine document from JSON bytes. This is a
// syntactic decode only: referential validation (targets, guard and
// action names) and expression compilation happen in the compiler.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse machine document: %w", err)
	}
	return &doc, nil
}

// canonicalMap flattens the document into the map shape used for
// fingerprinting. Only semantically relevant fields participate:
// authoring metadata (descriptions, emits) does not change identity.
func (d *Document) canonicalMap() map[string]any {
	states := make(map[string]any, len(d.Machine.States))
	for name, state := range d.Machine.States {
		on := make(map[string]any, len(state.On))
		for event, tr := range state.On {
			entry := map[string]any{"target": tr.Target}
			if tr.Guard != "" {
				entry["guard"] = tr.Guard
			}
			if len(tr.Actions) > 0 {
				actions := make([]any, len(tr.Actions))
				for i, a := range tr.Actions {
					actions[i] = a
				}
				entry["actions"] = actions
			}
			on[event] = entry
		}
		states[name] = map[string]any{"on": on}
	}

	guards := make(map[string]any, len(d.Guards))
	for name, src := range d.Guards {
		guards[name] = src
	}
	actions := make(map[string]any, len(d.Actions))
	for name, a := range d.Actions {
		actions[name] = a.Mutation
	}

	return map[string]any{
		"machine": map[string]any{
			"id":      d.Machine.ID,
			"initial": d.Machine.Initial,
			"states":  states,
		},
		"context": d.Context,
		"guards":  guards,
		"actions": actions,
	}
}
