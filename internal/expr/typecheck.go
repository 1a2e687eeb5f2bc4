package expr

import (
	"github.com/rubigo-ui/rubigo/internal/ir"
)

// typ is the static type lattice used at compile time. tAny covers
// event.value, whose type is only known at dispatch; operations on tAny
// are admitted statically and checked at evaluation.
type typ int8

const (
	tBool typ = iota
	tNum
	tStr
	tAny
)

func (t typ) String() string {
	switch t {
	case tBool:
		return "bool"
	case tNum:
		return "number"
	case tStr:
		return "string"
	default:
		return "any"
	}
}

func typeOfKind(k ir.Kind) typ {
	switch k {
	case ir.KindBool:
		return tBool
	case ir.KindNumber:
		return tNum
	default:
		return tStr
	}
}

// checker validates an AST against the declared context fields. All
// errors here are construction-time CompileErrors; nothing is deferred
// to the dispatch path except event-payload typing.
type checker struct {
	name   string
	src    string
	fields map[string]ir.Kind
}

func (c *checker) check(n Node) (typ, error) {
	switch node := n.(type) {
	case *Literal:
		return typeOfKind(node.Val.Kind()), nil

	case *FieldRead:
		kind, ok := c.fields[node.Field]
		if !ok {
			return tAny, compileErrf(c.name, c.src, -1, "unknown context field %q", node.Field)
		}
		return typeOfKind(kind), nil

	case *EventRead:
		return tAny, nil

	case *Unary:
		xt, err := c.check(node.X)
		if err != nil {
			return tAny, err
		}
		switch node.Op {
		case OpNot:
			if xt != tBool && xt != tAny {
				return tAny, compileErrf(c.name, c.src, -1, "operator ! requires a bool operand, got %s", xt)
			}
			return tBool, nil
		case OpNeg:
			if xt != tNum && xt != tAny {
				return tAny, compileErrf(c.name, c.src, -1, "operator - requires a number operand, got %s", xt)
			}
			return tNum, nil
		default:
			return tAny, compileErrf(c.name, c.src, -1, "unsupported unary operator %s", node.Op)
		}

	case *Binary:
		xt, err := c.check(node.X)
		if err != nil {
			return tAny, err
		}
		yt, err := c.check(node.Y)
		if err != nil {
			return tAny, err
		}
		switch node.Op {
		case OpAnd, OpOr:
			if (xt != tBool && xt != tAny) || (yt != tBool && yt != tAny) {
				return tAny, compileErrf(c.name, c.src, -1, "operator %s requires bool operands, got %s and %s", node.Op, xt, yt)
			}
			return tBool, nil

		case OpEq, OpNeq:
			if xt != tAny && yt != tAny && xt != yt {
				return tAny, compileErrf(c.name, c.src, -1, "cannot compare %s with %s", xt, yt)
			}
			return tBool, nil

		case OpLt, OpLe, OpGt, OpGe:
			if (xt != tNum && xt != tAny) || (yt != tNum && yt != tAny) {
				return tAny, compileErrf(c.name, c.src, -1, "operator %s requires number operands, got %s and %s", node.Op, xt, yt)
			}
			return tBool, nil

		case OpAdd, OpSub, OpMul:
			if (xt != tNum && xt != tAny) || (yt != tNum && yt != tAny) {
				return tAny, compileErrf(c.name, c.src, -1, "operator %s requires number operands, got %s and %s", node.Op, xt, yt)
			}
			return tNum, nil

		default:
			return tAny, compileErrf(c.name, c.src, -1, "unsupported operator %s", node.Op)
		}

	case *Clamp:
		for _, operand := range []Node{node.X, node.Lo, node.Hi} {
			ot, err := c.check(operand)
			if err != nil {
				return tAny, err
			}
			if ot != tNum && ot != tAny {
				return tAny, compileErrf(c.name, c.src, -1, "clamp requires number operands, got %s", ot)
			}
		}
		return tNum, nil

	default:
		return tAny, compileErrf(c.name, c.src, -1, "unsupported expression node %T", n)
	}
}

// checkGuard enforces that the expression produces a boolean.
func (c *checker) checkGuard(n Node) error {
	t, err := c.check(n)
	if err != nil {
		return err
	}
	if t != tBool && t != tAny {
		return compileErrf(c.name, c.src, -1, "guard must evaluate to a bool, got %s", t)
	}
	return nil
}

// checkAssign enforces that the assigned field exists and the RHS type
// matches the field's declared default type.
func (c *checker) checkAssign(a assign) error {
	kind, ok := c.fields[a.field]
	if !ok {
		return compileErrf(c.name, c.src, -1, "unknown context field %q on left-hand side", a.field)
	}
	rt, err := c.check(a.rhs)
	if err != nil {
		return err
	}
	if rt != tAny && rt != typeOfKind(kind) {
		return compileErrf(c.name, c.src, -1, "cannot assign %s to %s field %q", rt, kind, a.field)
	}
	return nil
}
