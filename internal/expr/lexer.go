package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokBang   // !
	tokAnd    // &&
	tokOr     // ||
	tokEq     // == or ===
	tokNeq    // != or !==
	tokLt     // <
	tokLe     // <=
	tokGt     // >
	tokGe     // >=
	tokPlus   // +
	tokMinus  // -
	tokStar   // *
	tokAssign // =
	tokLParen // (
	tokRParen // )
	tokComma  // ,
	tokDot    // .
	tokSemi   // ;
)

type token struct {
	kind tokenKind
	text string
	pos  int
	num  float64 // valid when kind == tokNumber
}

// lex tokenizes one expression or statement list. The grammar has no
// comments and no escapes beyond what component documents actually use,
// so the lexer stays small and position-exact.
func lex(name, src string) ([]token, error) {
	var toks []token
	i := 0
	n := len(src)

	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		case c == '.':
			toks = append(toks, token{kind: tokDot, text: ".", pos: i})
			i++
		case c == ';':
			toks = append(toks, token{kind: tokSemi, text: ";", pos: i})
			i++
		case c == '+':
			toks = append(toks, token{kind: tokPlus, text: "+", pos: i})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokMinus, text: "-", pos: i})
			i++
		case c == '*':
			toks = append(toks, token{kind: tokStar, text: "*", pos: i})
			i++

		case c == '&':
			if i+1 < n && src[i+1] == '&' {
				toks = append(toks, token{kind: tokAnd, text: "&&", pos: i})
				i += 2
			} else {
				return nil, compileErrf(name, src, i, "unexpected %q (did you mean \"&&\"?)", "&")
			}
		case c == '|':
			if i+1 < n && src[i+1] == '|' {
				toks = append(toks, token{kind: tokOr, text: "||", pos: i})
				i += 2
			} else {
				return nil, compileErrf(name, src, i, "unexpected %q (did you mean \"||\"?)", "|")
			}

		case c == '!':
			// ! vs != vs !== (the last two are aliases).
			if i+1 < n && src[i+1] == '=' {
				width := 2
				if i+2 < n && src[i+2] == '=' {
					width = 3
				}
				toks = append(toks, token{kind: tokNeq, text: src[i : i+width], pos: i})
				i += width
			} else {
				toks = append(toks, token{kind: tokBang, text: "!", pos: i})
				i++
			}
		case c == '=':
			// = vs == vs === (the last two are aliases).
			if i+1 < n && src[i+1] == '=' {
				width := 2
				if i+2 < n && src[i+2] == '=' {
					width = 3
				}
				toks = append(toks, token{kind: tokEq, text: src[i : i+width], pos: i})
				i += width
			} else {
				toks = append(toks, token{kind: tokAssign, text: "=", pos: i})
				i++
			}
		case c == '<':
			if i+1 < n && src[i+1] == '=' {
				toks = append(toks, token{kind: tokLe, text: "<=", pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokLt, text: "<", pos: i})
				i++
			}
		case c == '>':
			if i+1 < n && src[i+1] == '=' {
				toks = append(toks, token{kind: tokGe, text: ">=", pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokGt, text: ">", pos: i})
				i++
			}

		case c == '\'' || c == '"':
			start := i
			quote := c
			i++
			j := strings.IndexByte(src[i:], quote)
			if j < 0 {
				return nil, compileErrf(name, src, start, "unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: src[i : i+j], pos: start})
			i += j + 1

		case c >= '0' && c <= '9':
			start := i
			for i < n && (src[i] >= '0' && src[i] <= '9' || src[i] == '.') {
				i++
			}
			text := src[start:i]
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, compileErrf(name, src, start, "invalid number literal %q", text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, pos: start, num: num})

		case isIdentStart(rune(c)):
			start := i
			for i < n && isIdentPart(rune(src[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})

		default:
			return nil, compileErrf(name, src, i, "unexpected character %q", string(c))
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: n})
	return toks, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}
