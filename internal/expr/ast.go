package expr

import (
	"fmt"

	"github.com/rubigo-ui/rubigo/internal/ir"
)

// Node is the tagged-variant AST every backend executes. The interpreted
// backend walks it directly; the compiled backend lowers it to closures
// once at construction. Both see the exact same shape, which is what
// makes cross-backend parity checkable.
type Node interface {
	node()
	String() string
}

// Literal is a constant bool, number, or string.
type Literal struct {
	Val ir.Value
}

// FieldRead reads a context field (context.<field>).
type FieldRead struct {
	Field string
}

// EventRead reads the payload of the event being dispatched
// (event.value). Its type is unknown until dispatch time.
type EventRead struct{}

// Unary is boolean negation or numeric negation.
type Unary struct {
	Op Op
	X  Node
}

// Binary is a two-operand operation.
type Binary struct {
	Op   Op
	X, Y Node
}

// Clamp is the fixed clamp(x, lo, hi) operator. It is spelled like a
// call in source text but is part of the operator set, not a function
// facility.
type Clamp struct {
	X, Lo, Hi Node
}

func (*Literal) node()   {}
func (*FieldRead) node() {}
func (*EventRead) node() {}
func (*Unary) node()     {}
func (*Binary) node()    {}
func (*Clamp) node()     {}

// Op identifies an operator.
type Op int

const (
	OpNot Op = iota
	OpNeg
	OpAnd
	OpOr
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
)

var opNames = map[Op]string{
	OpNot: "!",
	OpNeg: "-",
	OpAnd: "&&",
	OpOr:  "||",
	OpEq:  "==",
	OpNeq: "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
}

// String returns the source spelling of the operator.
func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

func (l *Literal) String() string {
	switch v := l.Val.(type) {
	case ir.String:
		return fmt.Sprintf("%q", string(v))
	default:
		b, _ := ir.MarshalCanonical(v)
		return string(b)
	}
}

func (f *FieldRead) String() string { return "context." + f.Field }
func (*EventRead) String() string   { return "event.value" }

func (u *Unary) String() string { return u.Op.String() + u.X.String() }

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.X.String(), b.Op.String(), b.Y.String())
}

func (c *Clamp) String() string {
	return fmt.Sprintf("clamp(%s, %s, %s)", c.X.String(), c.Lo.String(), c.Hi.String())
}

// assign is one compiled action statement: context.<field> = <rhs>.
type assign struct {
	field string
	rhs   Node
	fn    thunk // closure form of rhs, built once at compile time
}

func (a assign) String() string {
	return "context." + a.field + " = " + a.rhs.String()
}

// Env is the read environment for one evaluation: the context being
// read (for actions, the scratch copy being written) and the optional
// event payload.
type Env struct {
	Ctx   ir.Context
	Event ir.Value // nil when the event carries no payload
}
