package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Trigger conditions are a small boolean language over named readings:
//
//	peopleSupport < 30 && (currentYear > 2200 || populationDeclineYears >= 3)
//
// Identifiers may carry an "attr." prefix. The expression is parsed once into a typed tree.

// Readings is the environment a condition is evaluated against.
type Readings interface {
	Reading(name string) (float64, bool)
}

type exprKind int

const (
	kindNum exprKind = iota
	kindBool
)

// Expr is a parsed condition node.
type Expr interface {
	kind() exprKind
	String() string
}

type numExpr interface {
	Expr
	num(r Readings) (float64, error)
}

type boolExpr interface {
	Expr
	truth(r Readings) (bool, error)
}

type numberLit struct{ v float64 }
type boolLit struct{ v bool }
type reading struct{ name string }
type negate struct{ x numExpr }
type arith struct {
	op   byte
	l, r numExpr
}
type compare struct {
	op   string
	l, r numExpr
}
type logical struct {
	and  bool
	l, r boolExpr
}
type not struct{ x boolExpr }

func (numberLit) kind() exprKind { return kindNum }
func (boolLit) kind() exprKind   { return kindBool }
func (reading) kind() exprKind   { return kindNum }
func (negate) kind() exprKind    { return kindNum }
func (arith) kind() exprKind     { return kindNum }
func (compare) kind() exprKind   { return kindBool }
func (logical) kind() exprKind   { return kindBool }
func (not) kind() exprKind       { return kindBool }

func (e numberLit) String() string { return strconv.FormatFloat(e.v, 'g', -1, 64) }
func (e boolLit) String() string   { return strconv.FormatBool(e.v) }
func (e reading) String() string   { return e.name }
func (e negate) String() string    { return "-" + e.x.String() }
func (e arith) String() string     { return "(" + e.l.String() + " " + string(e.op) + " " + e.r.String() + ")" }
func (e compare) String() string   { return "(" + e.l.String() + " " + e.op + " " + e.r.String() + ")" }
func (e not) String() string       { return "!" + e.x.String() }
func (e logical) String() string {
	op := "||"
	if e.and {
		op = "&&"
	}
	return "(" + e.l.String() + " " + op + " " + e.r.String() + ")"
}

var errUnknownReading = errors.New("unknown reading")

func (e numberLit) num(Readings) (float64, error) { return e.v, nil }
func (e boolLit) truth(Readings) (bool, error)    { return e.v, nil }

func (e reading) num(r Readings) (float64, error) {
	v, ok := r.Reading(e.name)
	if !ok {
		return 0, fmt.Errorf("%w %q", errUnknownReading, e.name)
	}
	return v, nil
}

func (e negate) num(r Readings) (float64, error) {
	v, err := e.x.num(r)
	return -v, err
}

func (e arith) num(r Readings) (float64, error) {
	l, err := e.l.num(r)
	if err != nil {
		return 0, err
	}
	rv, err := e.r.num(r)
	if err != nil {
		return 0, err
	}
	switch e.op {
	case '+':
		return l + rv, nil
	case '-':
		return l - rv, nil
	case '*':
		return l * rv, nil
	case '/':
		if rv == 0 {
			return 0, errors.New("division by zero")
		}
		return l / rv, nil
	case '%':
		if rv == 0 {
			return 0, errors.New("modulo by zero")
		}
		return math.Mod(l, rv), nil
	}
	return 0, fmt.Errorf("bad operator %q", e.op)
}

func (e compare) truth(r Readings) (bool, error) {
	l, err := e.l.num(r)
	if err != nil {
		return false, err
	}
	rv, err := e.r.num(r)
	if err != nil {
		return false, err
	}
	switch e.op {
	case "<":
		return l < rv, nil
	case "<=":
		return l <= rv, nil
	case ">":
		return l > rv, nil
	case ">=":
		return l >= rv, nil
	case "==":
		return l == rv, nil
	case "!=":
		return l != rv, nil
	}
	return false, fmt.Errorf("bad comparison %q", e.op)
}

func (e logical) truth(r Readings) (bool, error) {
	l, err := e.l.truth(r)
	if err != nil {
		return false, err
	}
	if e.and && !l {
		return false, nil
	}
	if !e.and && l {
		return true, nil
	}
	return e.r.truth(r)
}

func (e not) truth(r Readings) (bool, error) {
	v, err := e.x.truth(r)
	return !v, err
}

// Condition is a compiled trigger condition. The zero value always passes.
type Condition struct {
	Source string
	root   boolExpr
}

// Always reports whether the condition is the empty/"none" condition.
func (c Condition) Always() bool { return c.root == nil }

// Eval evaluates the condition. Failures come back as *ConditionEvaluationError with false.
func (c Condition) Eval(r Readings) (bool, error) {
	if c.Always() {
		return true, nil
	}
	ok, err := c.root.truth(r)
	if err != nil {
		return false, &ConditionEvaluationError{Expr: c.Source, Pos: -1, Err: err}
	}
	return ok, nil
}

func (c Condition) String() string {
	if c.root == nil {
		return "none"
	}
	return c.root.String()
}

// ParseCondition compiles src. Empty text and "none" produce the always-true condition.
func ParseCondition(src string) (Condition, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return Condition{Source: src}, nil
	}
	toks, err := lex(trimmed)
	if err != nil {
		return Condition{}, &ConditionEvaluationError{Expr: src, Pos: posOf(err), Err: err}
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err == nil && p.peek().typ != tokEOF {
		err = p.errorf("unexpected %q", p.peek().text)
	}
	if err != nil {
		return Condition{}, &ConditionEvaluationError{Expr: src, Pos: posOf(err), Err: err}
	}
	b, ok := root.(boolExpr)
	if !ok {
		return Condition{}, &ConditionEvaluationError{Expr: src, Pos: 0, Err: errors.New("condition must be a comparison or boolean")}
	}
	return Condition{Source: src, root: b}, nil
}

// MustParseCondition is ParseCondition for literals in code and tests.
func MustParseCondition(src string) Condition {
	c, err := ParseCondition(src)
	if err != nil {
		panic(err)
	}
	return c
}

// lexer

type tokType int

const (
	tokEOF tokType = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	typ  tokType
	text string
	num  float64
	pos  int
}

type posError struct {
	pos int
	msg string
}

func (e *posError) Error() string { return e.msg }

func posOf(err error) int {
	var pe *posError
	if errors.As(err, &pe) {
		return pe.pos
	}
	return -1
}

var twoCharOps = []string{"&&", "||", "<=", ">=", "==", "!="}

func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		c := rs[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || (c == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.' || rs[i] == '_') {
				i++
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				i++
				if i < len(rs) && (rs[i] == '+' || rs[i] == '-') {
					i++
				}
				for i < len(rs) && unicode.IsDigit(rs[i]) {
					i++
				}
			}
			text := string(rs[start:i])
			v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
			if err != nil {
				return nil, &posError{pos: start, msg: fmt.Sprintf("bad number %q", text)}
			}
			toks = append(toks, token{typ: tokNum, text: text, num: v, pos: start})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_' || rs[i] == '.') {
				i++
			}
			toks = append(toks, token{typ: tokIdent, text: string(rs[start:i]), pos: start})
		case c == '(':
			toks = append(toks, token{typ: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{typ: tokRParen, text: ")", pos: i})
			i++
		default:
			matched := false
			for _, op := range twoCharOps {
				if i+1 < len(rs) && string(rs[i:i+2]) == op {
					text := op
					n := 2
					// JS strict equality collapses onto numeric equality.
					if (op == "==" || op == "!=") && i+2 < len(rs) && rs[i+2] == '=' {
						n = 3
					}
					toks = append(toks, token{typ: tokOp, text: text, pos: i})
					i += n
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if strings.ContainsRune("<>!+-*/%", c) {
				toks = append(toks, token{typ: tokOp, text: string(c), pos: i})
				i++
				continue
			}
			return nil, &posError{pos: i, msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return append(toks, token{typ: tokEOF, pos: len(rs)}), nil
}

// parser

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.typ != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) acceptOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.typ != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.i++
			return op, true
		}
	}
	return "", false
}

func (p *parser) errorf(format string, args ...any) error {
	return &posError{pos: p.peek().pos, msg: fmt.Sprintf(format, args...)}
}

func (p *parser) asBool(e Expr) (boolExpr, error) {
	b, ok := e.(boolExpr)
	if !ok {
		return nil, p.errorf("expected boolean, got %s", e)
	}
	return b, nil
}

func (p *parser) asNum(e Expr) (numExpr, error) {
	n, ok := e.(numExpr)
	if !ok {
		return nil, p.errorf("expected number, got %s", e)
	}
	return n, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l, err := p.asBool(left)
		if err != nil {
			return nil, err
		}
		r, err := p.asBool(right)
		if err != nil {
			return nil, err
		}
		left = logical{and: false, l: l, r: r}
	}
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("&&"); !ok {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		l, err := p.asBool(left)
		if err != nil {
			return nil, err
		}
		r, err := p.asBool(right)
		if err != nil {
			return nil, err
		}
		left = logical{and: true, l: l, r: r}
	}
}

func (p *parser) parseNot() (Expr, error) {
	if _, ok := p.acceptOp("!"); ok {
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		b, err := p.asBool(x)
		if err != nil {
			return nil, err
		}
		return not{x: b}, nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (Expr, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp("<", "<=", ">", ">=", "==", "!=")
	if !ok {
		return left, nil
	}
	right, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	l, err := p.asNum(left)
	if err != nil {
		return nil, err
	}
	r, err := p.asNum(right)
	if err != nil {
		return nil, err
	}
	return compare{op: op, l: l, r: r}, nil
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if left, err = p.arith(op, left, right); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/", "%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if left, err = p.arith(op, left, right); err != nil {
			return nil, err
		}
	}
}

func (p *parser) arith(op string, left, right Expr) (Expr, error) {
	l, err := p.asNum(left)
	if err != nil {
		return nil, err
	}
	r, err := p.asNum(right)
	if err != nil {
		return nil, err
	}
	return arith{op: op[0], l: l, r: r}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if _, ok := p.acceptOp("-"); ok {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n, err := p.asNum(x)
		if err != nil {
			return nil, err
		}
		return negate{x: n}, nil
	}
	if _, ok := p.acceptOp("!"); ok {
		p.i--
		return p.parseNot()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.typ {
	case tokNum:
		return numberLit{v: t.num}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return boolLit{v: true}, nil
		case "false":
			return boolLit{v: false}, nil
		}
		return reading{name: readingName(t.text)}, nil
	case tokLParen:
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().typ != tokRParen {
			return nil, &posError{pos: t.pos, msg: "unclosed parenthesis"}
		}
		return e, nil
	case tokEOF:
		return nil, &posError{pos: t.pos, msg: "unexpected end of condition"}
	}
	return nil, &posError{pos: t.pos, msg: fmt.Sprintf("unexpected %q", t.text)}
}

// readingName strips the object prefixes content authors copy from the game script.
func readingName(ident string) string {
	for _, prefix := range []string{"gameState.attributes.", "gameState.", "attributes.", "attr."} {
		if strings.HasPrefix(ident, prefix) {
			return strings.TrimPrefix(ident, prefix)
		}
	}
	return ident
}
