package expr

import (
	"github.com/rubigo-ui/rubigo/internal/ir"
)

// parser is a recursive-descent parser over the token stream.
// Precedence, loosest to tightest: || < && < == != < relational <
// additive < multiplicative < unary.
type parser struct {
	name string
	src  string
	toks []token
	i    int
}

func newParser(name, src string) (*parser, error) {
	toks, err := lex(name, src)
	if err != nil {
		return nil, err
	}
	return &parser{name: name, src: src, toks: toks}, nil
}

func (p *parser) peek() token  { return p.toks[p.i] }
func (p *parser) next() token  { t := p.toks[p.i]; p.i++; return t }
func (p *parser) at(k tokenKind) bool { return p.toks[p.i].kind == k }

func (p *parser) expect(k tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != k {
		return token{}, compileErrf(p.name, p.src, t.pos, "expected %s, got %q", what, t.text)
	}
	return t, nil
}

// parseExpr parses a complete expression and requires EOF after it.
func (p *parser) parseExpr() (Node, error) {
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.at(tokEOF) {
		t := p.peek()
		return nil, compileErrf(p.name, p.src, t.pos, "unexpected %q after expression", t.text)
	}
	return n, nil
}

// parseStmts parses a ;-separated list of assignment statements.
// A trailing semicolon is tolerated (generated documents emit it).
func (p *parser) parseStmts() ([]assign, error) {
	var stmts []assign
	for {
		if p.at(tokEOF) {
			break
		}
		stmt, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		if p.at(tokSemi) {
			p.next()
			continue
		}
		if !p.at(tokEOF) {
			t := p.peek()
			return nil, compileErrf(p.name, p.src, t.pos, "expected %q or end of mutation, got %q", ";", t.text)
		}
	}
	if len(stmts) == 0 {
		return nil, compileErrf(p.name, p.src, 0, "empty mutation")
	}
	return stmts, nil
}

// parseAssign parses one "context.<field> = <expr>" statement.
func (p *parser) parseAssign() (assign, error) {
	t, err := p.expect(tokIdent, `"context"`)
	if err != nil {
		return assign{}, err
	}
	if t.text != "context" {
		return assign{}, compileErrf(p.name, p.src, t.pos, "mutations assign to context fields, got %q", t.text)
	}
	if _, err := p.expect(tokDot, `"."`); err != nil {
		return assign{}, err
	}
	field, err := p.expect(tokIdent, "field name")
	if err != nil {
		return assign{}, err
	}
	if _, err := p.expect(tokAssign, `"="`); err != nil {
		return assign{}, err
	}
	rhs, err := p.parseOr()
	if err != nil {
		return assign{}, err
	}
	return assign{field: field.text, rhs: rhs}, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(tokOr) {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpOr, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(tokAnd) {
		p.next()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpAnd, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) parseEquality() (Node, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.at(tokEq) || p.at(tokNeq) {
		op := OpEq
		if p.next().kind == tokNeq {
			op = OpNeq
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) parseRelational() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op Op
		switch p.peek().kind {
		case tokLt:
			op = OpLt
		case tokLe:
			op = OpLe
		case tokGt:
			op = OpGt
		case tokGe:
			op = OpGe
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, X: left, Y: right}
	}
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(tokPlus) || p.at(tokMinus) {
		op := OpAdd
		if p.next().kind == tokMinus {
			op = OpSub
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(tokStar) {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpMul, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	switch p.peek().kind {
	case tokBang:
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNot, X: x}, nil
	case tokMinus:
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNeg, X: x}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &Literal{Val: ir.Number(t.num)}, nil
	case tokString:
		return &Literal{Val: ir.String(t.text)}, nil

	case tokIdent:
		switch t.text {
		case "true":
			return &Literal{Val: ir.Bool(true)}, nil
		case "false":
			return &Literal{Val: ir.Bool(false)}, nil

		case "context":
			if _, err := p.expect(tokDot, `"."`); err != nil {
				return nil, err
			}
			field, err := p.expect(tokIdent, "field name")
			if err != nil {
				return nil, err
			}
			return &FieldRead{Field: field.text}, nil

		case "event":
			if _, err := p.expect(tokDot, `"."`); err != nil {
				return nil, err
			}
			member, err := p.expect(tokIdent, `"value"`)
			if err != nil {
				return nil, err
			}
			if member.text != "value" {
				return nil, compileErrf(p.name, p.src, member.pos, "unknown event member %q (only event.value is supported)", member.text)
			}
			return &EventRead{}, nil

		case "clamp":
			if _, err := p.expect(tokLParen, `"("`); err != nil {
				return nil, err
			}
			x, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokComma, `","`); err != nil {
				return nil, err
			}
			lo, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokComma, `","`); err != nil {
				return nil, err
			}
			hi, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRParen, `")"`); err != nil {
				return nil, err
			}
			return &Clamp{X: x, Lo: lo, Hi: hi}, nil

		default:
			return nil, compileErrf(p.name, p.src, t.pos, "unknown identifier %q (expected context.<field>, event.value, clamp, or a literal)", t.text)
		}

	case tokLParen:
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return n, nil

	default:
		return nil, compileErrf(p.name, p.src, t.pos, "unexpected %q", t.text)
	}
}
