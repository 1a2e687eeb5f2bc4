package expr

import (
	"github.com/rubigo-ui/rubigo/internal/ir"
)

// thunk is the closure form of one AST node. Thunks are built once at
// spec construction; dispatch just calls them.
type thunk func(Env) (rval, error)

// compileNode lowers an AST node to a closure tree. The lowering
// mirrors evalNode exactly; any behavioral difference between the two
// is a conformance bug.
func compileNode(name string, n Node) thunk {
	switch node := n.(type) {
	case *Literal:
		v := fromValue(node.Val)
		return func(Env) (rval, error) { return v, nil }

	case *FieldRead:
		field := node.Field
		return func(env Env) (rval, error) {
			v, ok := env.Ctx[field]
			if !ok {
				return rval{}, evalErrf(name, "context field %q missing at dispatch", field)
			}
			return fromValue(v), nil
		}

	case *EventRead:
		return func(env Env) (rval, error) {
			if env.Event == nil {
				return rval{}, evalErrf(name, "expression reads event.value but the event carries no payload")
			}
			return fromValue(env.Event), nil
		}

	case *Unary:
		x := compileNode(name, node.X)
		if node.Op == OpNot {
			return func(env Env) (rval, error) {
				v, err := x(env)
				if err != nil {
					return rval{}, err
				}
				if v.kind != ir.KindBool {
					return rval{}, evalErrf(name, "operator ! applied to %s value", v.kind)
				}
				return rval{kind: ir.KindBool, b: !v.b}, nil
			}
		}
		return func(env Env) (rval, error) {
			v, err := x(env)
			if err != nil {
				return rval{}, err
			}
			if v.kind != ir.KindNumber {
				return rval{}, evalErrf(name, "operator - applied to %s value", v.kind)
			}
			return rval{kind: ir.KindNumber, n: -v.n}, nil
		}

	case *Binary:
		x := compileNode(name, node.X)
		y := compileNode(name, node.Y)

		switch node.Op {
		case OpAnd:
			return func(env Env) (rval, error) {
				xv, err := x(env)
				if err != nil {
					return rval{}, err
				}
				if xv.kind != ir.KindBool {
					return rval{}, evalErrf(name, "expected bool, got %s", xv.kind)
				}
				if !xv.b {
					return rval{kind: ir.KindBool, b: false}, nil
				}
				yv, err := y(env)
				if err != nil {
					return rval{}, err
				}
				if yv.kind != ir.KindBool {
					return rval{}, evalErrf(name, "expected bool, got %s", yv.kind)
				}
				return rval{kind: ir.KindBool, b: yv.b}, nil
			}
		case OpOr:
			return func(env Env) (rval, error) {
				xv, err := x(env)
				if err != nil {
					return rval{}, err
				}
				if xv.kind != ir.KindBool {
					return rval{}, evalErrf(name, "expected bool, got %s", xv.kind)
				}
				if xv.b {
					return rval{kind: ir.KindBool, b: true}, nil
				}
				yv, err := y(env)
				if err != nil {
					return rval{}, err
				}
				if yv.kind != ir.KindBool {
					return rval{}, evalErrf(name, "expected bool, got %s", yv.kind)
				}
				return rval{kind: ir.KindBool, b: yv.b}, nil
			}
		}

		op := node.Op
		return func(env Env) (rval, error) {
			xv, err := x(env)
			if err != nil {
				return rval{}, err
			}
			yv, err := y(env)
			if err != nil {
				return rval{}, err
			}
			return applyBinary(name, op, xv, yv)
		}

	case *Clamp:
		x := compileNode(name, node.X)
		lo := compileNode(name, node.Lo)
		hi := compileNode(name, node.Hi)
		return func(env Env) (rval, error) {
			xv, err := x(env)
			if err != nil {
				return rval{}, err
			}
			lov, err := lo(env)
			if err != nil {
				return rval{}, err
			}
			hiv, err := hi(env)
			if err != nil {
				return rval{}, err
			}
			if xv.kind != ir.KindNumber || lov.kind != ir.KindNumber || hiv.kind != ir.KindNumber {
				return rval{}, evalErrf(name, "clamp applied to non-number value")
			}
			return rval{kind: ir.KindNumber, n: clampFloat(xv.n, lov.n, hiv.n)}, nil
		}

	default:
		return func(Env) (rval, error) {
			return rval{}, evalErrf(name, "unsupported expression node %T", n)
		}
	}
}
