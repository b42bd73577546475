package content

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Formula is a parsed formula expression. Expressions support number and
// string literals, prop("Column Name") references, the operators + - * /
// with the usual precedence, unary minus, and parentheses. + concatenates
// when either operand is a string.
//
// Expressions are validated at definition time; evaluation never fails.
// A reference to a missing column, a type mismatch, or division by zero
// yields nil, which renders as an empty cell.
type Formula struct {
	root formulaNode
}

// ParseFormula parses an expression. The returned Formula is safe for
// concurrent use.
func ParseFormula(expr string) (*Formula, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("expression is empty")
	}
	p := &formulaParser{input: expr}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("unexpected %q at offset %d", p.input[p.pos], p.pos)
	}
	return &Formula{root: root}, nil
}

// Eval evaluates the formula. lookup resolves a column name to that column's
// effective value for the entry being computed; it returns nil for unknown
// names.
func (f *Formula) Eval(lookup func(name string) any) any {
	return f.root.eval(lookup)
}

type formulaNode interface {
	eval(lookup func(string) any) any
}

type numberNode float64

func (n numberNode) eval(func(string) any) any { return float64(n) }

type stringNode string

func (n stringNode) eval(func(string) any) any { return string(n) }

type propNode string

func (n propNode) eval(lookup func(string) any) any { return lookup(string(n)) }

type negNode struct{ arg formulaNode }

func (n negNode) eval(lookup func(string) any) any {
	if v, ok := toNumber(n.arg.eval(lookup)); ok {
		return -v
	}
	return nil
}

type binNode struct {
	op          byte
	left, right formulaNode
}

func (n binNode) eval(lookup func(string) any) any {
	l := n.left.eval(lookup)
	r := n.right.eval(lookup)
	if l == nil || r == nil {
		return nil
	}
	if n.op == '+' {
		ls, lok := l.(string)
		rs, rok := r.(string)
		if lok || rok {
			if !lok {
				ls = formatScalar(l)
			}
			if !rok {
				rs = formatScalar(r)
			}
			return ls + rs
		}
	}
	lf, lok := toNumber(l)
	rf, rok := toNumber(r)
	if !lok || !rok {
		return nil
	}
	switch n.op {
	case '+':
		return lf + rf
	case '-':
		return lf - rf
	case '*':
		return lf * rf
	case '/':
		if rf == 0 {
			return nil
		}
		return lf / rf
	}
	return nil
}

// formatScalar renders a value for string concatenation.
func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

type formulaParser struct {
	input string
	pos   int
}

func (p *formulaParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *formulaParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *formulaParser) parseExpr() (formulaNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, left: left, right: right}
	}
}

func (p *formulaParser) parseTerm() (formulaNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, left: left, right: right}
	}
}

func (p *formulaParser) parseUnary() (formulaNode, error) {
	p.skipSpace()
	if p.peek() == '-' {
		p.pos++
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negNode{arg: arg}, nil
	}
	return p.parsePrimary()
}

func (p *formulaParser) parsePrimary() (formulaNode, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing ) at offset %d", p.pos)
		}
		p.pos++
		return inner, nil
	case c == '"' || c == '\'':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return stringNode(s), nil
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case c == 'p':
		return p.parseProp()
	case c == 0:
		return nil, errors.New("unexpected end of expression")
	default:
		return nil, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
	}
}

func (p *formulaParser) parseString() (string, error) {
	quote := p.input[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		p.pos++
		switch c {
		case quote:
			return b.String(), nil
		case '\\':
			if p.pos >= len(p.input) {
				return "", errors.New("unterminated string")
			}
			b.WriteByte(p.input[p.pos])
			p.pos++
		default:
			b.WriteByte(c)
		}
	}
	return "", errors.New("unterminated string")
}

func (p *formulaParser) parseNumber() (formulaNode, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' || c == '.' {
			p.pos++
			continue
		}
		break
	}
	n, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return nil, fmt.Errorf("bad number %q", p.input[start:p.pos])
	}
	return numberNode(n), nil
}

func (p *formulaParser) parseProp() (formulaNode, error) {
	if !strings.HasPrefix(p.input[p.pos:], "prop") {
		return nil, fmt.Errorf("unexpected identifier at offset %d", p.pos)
	}
	p.pos += len("prop")
	p.skipSpace()
	if p.peek() != '(' {
		return nil, errors.New("prop requires a quoted column name argument")
	}
	p.pos++
	p.skipSpace()
	if c := p.peek(); c != '"' && c != '\'' {
		return nil, errors.New("prop requires a quoted column name argument")
	}
	name, err := p.parseString()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ')' {
		return nil, fmt.Errorf("missing ) at offset %d", p.pos)
	}
	p.pos++
	return propNode(name), nil
}

// CoerceFormulaResult coerces a formula's raw result to its declared type.
func CoerceFormulaResult(t FormulaResultType, v any) any {
	if v == nil {
		return nil
	}
	switch t {
	case FormulaResultNumber:
		if n, ok := toNumber(v); ok {
			return n
		}
		return nil
	case FormulaResultText:
		if s := formatScalar(v); s != "" {
			return s
		}
		return nil
	case FormulaResultBool:
		if b, ok := toBool(v); ok {
			return b
		}
		return nil
	case FormulaResultDate:
		return coerceDate(v)
	default:
		return nil
	}
}
