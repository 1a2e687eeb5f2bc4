package expr

import (
	"github.com/rubigo-ui/rubigo/internal/ir"
)

// rval is the scratch value flowing through evaluation. A plain struct
// keeps the dispatch path free of interface boxing: booleans and
// numbers never allocate.
type rval struct {
	kind ir.Kind
	b    bool
	n    float64
	s    string
}

func fromValue(v ir.Value) rval {
	switch val := v.(type) {
	case ir.Bool:
		return rval{kind: ir.KindBool, b: bool(val)}
	case ir.Number:
		return rval{kind: ir.KindNumber, n: float64(val)}
	case ir.String:
		return rval{kind: ir.KindString, s: string(val)}
	default:
		return rval{kind: ir.KindBool}
	}
}

func (r rval) value() ir.Value {
	switch r.kind {
	case ir.KindBool:
		return ir.Bool(r.b)
	case ir.KindNumber:
		return ir.Number(r.n)
	default:
		return ir.String(r.s)
	}
}

func (r rval) equal(o rval) bool {
	if r.kind != o.kind {
		// Runtime kind mismatch (only reachable through event.value):
		// values of different kinds are never equal, matching the
		// strict-equality semantics of the authoring toolchain.
		return false
	}
	switch r.kind {
	case ir.KindBool:
		return r.b == o.b
	case ir.KindNumber:
		return r.n == o.n
	default:
		return r.s == o.s
	}
}

// evalNode is the tree-walking backend: it executes the AST directly,
// one node at a time. The compiled backend in compile.go lowers the
// same AST to closures; both must agree on every input, which the
// conformance harness enforces.
func evalNode(name string, n Node, env Env) (rval, error) {
	switch node := n.(type) {
	case *Literal:
		return fromValue(node.Val), nil

	case *FieldRead:
		v, ok := env.Ctx[node.Field]
		if !ok {
			return rval{}, evalErrf(name, "context field %q missing at dispatch", node.Field)
		}
		return fromValue(v), nil

	case *EventRead:
		if env.Event == nil {
			return rval{}, evalErrf(name, "expression reads event.value but the event carries no payload")
		}
		return fromValue(env.Event), nil

	case *Unary:
		x, err := evalNode(name, node.X, env)
		if err != nil {
			return rval{}, err
		}
		switch node.Op {
		case OpNot:
			if x.kind != ir.KindBool {
				return rval{}, evalErrf(name, "operator ! applied to %s value", x.kind)
			}
			return rval{kind: ir.KindBool, b: !x.b}, nil
		default: // OpNeg
			if x.kind != ir.KindNumber {
				return rval{}, evalErrf(name, "operator - applied to %s value", x.kind)
			}
			return rval{kind: ir.KindNumber, n: -x.n}, nil
		}

	case *Binary:
		// && and || short-circuit; both backends must agree on this.
		switch node.Op {
		case OpAnd, OpOr:
			x, err := evalBool(name, node.X, env)
			if err != nil {
				return rval{}, err
			}
			if node.Op == OpAnd && !x {
				return rval{kind: ir.KindBool, b: false}, nil
			}
			if node.Op == OpOr && x {
				return rval{kind: ir.KindBool, b: true}, nil
			}
			y, err := evalBool(name, node.Y, env)
			if err != nil {
				return rval{}, err
			}
			return rval{kind: ir.KindBool, b: y}, nil
		}

		x, err := evalNode(name, node.X, env)
		if err != nil {
			return rval{}, err
		}
		y, err := evalNode(name, node.Y, env)
		if err != nil {
			return rval{}, err
		}
		return applyBinary(name, node.Op, x, y)

	case *Clamp:
		x, err := evalNumber(name, node.X, env)
		if err != nil {
			return rval{}, err
		}
		lo, err := evalNumber(name, node.Lo, env)
		if err != nil {
			return rval{}, err
		}
		hi, err := evalNumber(name, node.Hi, env)
		if err != nil {
			return rval{}, err
		}
		return rval{kind: ir.KindNumber, n: clampFloat(x, lo, hi)}, nil

	default:
		return rval{}, evalErrf(name, "unsupported expression node %T", n)
	}
}

func evalBool(name string, n Node, env Env) (bool, error) {
	v, err := evalNode(name, n, env)
	if err != nil {
		return false, err
	}
	if v.kind != ir.KindBool {
		return false, evalErrf(name, "expected bool, got %s", v.kind)
	}
	return v.b, nil
}

func evalNumber(name string, n Node, env Env) (float64, error) {
	v, err := evalNode(name, n, env)
	if err != nil {
		return 0, err
	}
	if v.kind != ir.KindNumber {
		return 0, evalErrf(name, "expected number, got %s", v.kind)
	}
	return v.n, nil
}

// applyBinary handles the non-short-circuiting operators. Shared by
// both backends so that edge cases (kind mismatches, comparisons)
// cannot diverge.
func applyBinary(name string, op Op, x, y rval) (rval, error) {
	switch op {
	case OpEq:
		return rval{kind: ir.KindBool, b: x.equal(y)}, nil
	case OpNeq:
		return rval{kind: ir.KindBool, b: !x.equal(y)}, nil

	case OpLt, OpLe, OpGt, OpGe:
		if x.kind != ir.KindNumber || y.kind != ir.KindNumber {
			return rval{}, evalErrf(name, "operator %s applied to %s and %s values", op, x.kind, y.kind)
		}
		var b bool
		switch op {
		case OpLt:
			b = x.n < y.n
		case OpLe:
			b = x.n <= y.n
		case OpGt:
			b = x.n > y.n
		default:
			b = x.n >= y.n
		}
		return rval{kind: ir.KindBool, b: b}, nil

	case OpAdd, OpSub, OpMul:
		if x.kind != ir.KindNumber || y.kind != ir.KindNumber {
			return rval{}, evalErrf(name, "operator %s applied to %s and %s values", op, x.kind, y.kind)
		}
		var n float64
		switch op {
		case OpAdd:
			n = x.n + y.n
		case OpSub:
			n = x.n - y.n
		default:
			n = x.n * y.n
		}
		return rval{kind: ir.KindNumber, n: n}, nil

	default:
		return rval{}, evalErrf(name, "unsupported operator %s", op)
	}
}

// clampFloat pins x into [lo, hi]. When lo > hi the bounds are applied
// in order (hi wins), matching the upstream toolchain.
func clampFloat(x, lo, hi float64) float64 {
	if x < lo {
		x = lo
	}
	if x > hi {
		x = hi
	}
	return x
}
