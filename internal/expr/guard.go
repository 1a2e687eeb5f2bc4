package expr

import (
	"github.com/rubigo-ui/rubigo/internal/ir"
)

// Guard is a compiled boolean predicate over context (and optionally
// the event payload). It carries both execution forms, the AST for the
// interpreted backend and the closure for the compiled backend, built
// from the same source at construction time.
type Guard struct {
	Name   string
	Source string

	root Node
	fn   thunk
}

// CompileGuard parses, type-checks, and lowers guard source text.
// fields declares the context fields and their kinds; referencing
// anything else, or producing a non-boolean result, is a CompileError.
func CompileGuard(name, source string, fields map[string]ir.Kind) (*Guard, error) {
	p, err := newParser(name, source)
	if err != nil {
		return nil, err
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	c := &checker{name: name, src: source, fields: fields}
	if err := c.checkGuard(root); err != nil {
		return nil, err
	}

	return &Guard{
		Name:   name,
		Source: source,
		root:   root,
		fn:     compileNode(name, root),
	}, nil
}

// AST exposes the parsed expression tree (read-only by convention).
func (g *Guard) AST() Node { return g.root }

// Interpret evaluates the guard by walking the AST.
func (g *Guard) Interpret(env Env) (bool, error) {
	v, err := evalNode(g.Name, g.root, env)
	if err != nil {
		return false, err
	}
	if v.kind != ir.KindBool {
		return false, evalErrf(g.Name, "guard produced %s, expected bool", v.kind)
	}
	return v.b, nil
}

// Call evaluates the guard through its pre-built closure.
func (g *Guard) Call(env Env) (bool, error) {
	v, err := g.fn(env)
	if err != nil {
		return false, err
	}
	if v.kind != ir.KindBool {
		return false, evalErrf(g.Name, "guard produced %s, expected bool", v.kind)
	}
	return v.b, nil
}

// Action is a compiled context mutation: one or more ;-separated
// assignment statements, each writing exactly one context field. Like
// Guard it carries both execution forms built from the same source.
type Action struct {
	Name   string
	Source string

	stmts []assign
}

// CompileAction parses, type-checks, and lowers mutation source text.
func CompileAction(name, source string, fields map[string]ir.Kind) (*Action, error) {
	p, err := newParser(name, source)
	if err != nil {
		return nil, err
	}
	stmts, err := p.parseStmts()
	if err != nil {
		return nil, err
	}

	c := &checker{name: name, src: source, fields: fields}
	for i := range stmts {
		if err := c.checkAssign(stmts[i]); err != nil {
			return nil, err
		}
		stmts[i].fn = compileNode(name, stmts[i].rhs)
	}

	return &Action{Name: name, Source: source, stmts: stmts}, nil
}

// Statements returns the action's statements in source form, e.g. for
// diagnostics. The slice is freshly allocated.
func (a *Action) Statements() []string {
	out := make([]string, len(a.stmts))
	for i, s := range a.stmts {
		out[i] = s.String()
	}
	return out
}

// AssignedFields returns the context fields this action writes, in
// statement order (duplicates preserved).
func (a *Action) AssignedFields() []string {
	out := make([]string, len(a.stmts))
	for i, s := range a.stmts {
		out[i] = s.field
	}
	return out
}

// Interpret applies the mutation to env.Ctx by walking each statement's
// AST. Statements run in order; later statements observe earlier
// writes. env.Ctx is expected to be the caller's scratch copy; on
// error the caller discards it, which is what keeps guard and eval
// failures free of partial mutation.
func (a *Action) Interpret(env Env) error {
	for _, s := range a.stmts {
		v, err := evalNode(a.Name, s.rhs, env)
		if err != nil {
			return err
		}
		env.Ctx[s.field] = v.value()
	}
	return nil
}

// Call applies the mutation through the pre-built closures.
func (a *Action) Call(env Env) error {
	for _, s := range a.stmts {
		v, err := s.fn(env)
		if err != nil {
			return err
		}
		env.Ctx[s.field] = v.value()
	}
	return nil
}
