package formula

import (
	"strconv"
	"strings"
)

// Expression is a parsed formula ready for repeated evaluation.
// Expressions are immutable and safe to share between goroutines;
// the randomness comes from the Evaluator passed to Eval.
type Expression struct {
	src  string
	root node
}

// String returns the source text of the expression.
func (x *Expression) String() string {
	return x.src
}

// Compile parses expr. Unknown functions and wrong arities are reported
// here, variables are only resolved at evaluation time.
func Compile(expr string) (*Expression, error) {
	p := &parser{src: expr}
	p.skipSpace()
	if p.eof() {
		return nil, syntaxErrorf("empty expression")
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, syntaxErrorf("unexpected %q at position %d", p.src[p.pos], p.pos)
	}
	return &Expression{src: expr, root: root}, nil
}

// Validate reports whether expr is syntactically valid.
func Validate(expr string) error {
	_, err := Compile(expr)
	return err
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// expr := term (('+'|'-') term)*
func (p *parser) parseExpr() (node, error) {
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
		left = binaryNode{op: op, left: left, right: right}
	}
}

// term := factor (('*'|'/') factor)*
func (p *parser) parseTerm() (node, error) {
	left, err := p.parseFactor()
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
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

// factor := ('-'|'+')? primary
func (p *parser) parseFactor() (node, error) {
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.pos++
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return unaryNode{operand: operand}, nil
	case '+':
		p.pos++
	}
	return p.parsePrimary()
}

// primary := number ['d' number] | '(' expr ')' | identifier ['(' args ')']
func (p *parser) parsePrimary() (node, error) {
	p.skipSpace()
	if p.eof() {
		return nil, syntaxErrorf("unexpected end of expression")
	}
	c := p.peek()
	switch {
	case isDigit(c) || c == '.':
		return p.parseNumber()
	case c == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, syntaxErrorf("missing ')' at position %d", p.pos)
		}
		p.pos++
		return inner, nil
	case isIdentStart(c):
		return p.parseIdentifier()
	}
	return nil, syntaxErrorf("unexpected %q at position %d", c, p.pos)
}

func (p *parser) parseNumber() (node, error) {
	start := p.pos
	for !p.eof() && (isDigit(p.peek()) || p.peek() == '.') {
		p.pos++
	}
	text := p.src[start:p.pos]

	if c := p.peek(); c == 'd' || c == 'D' {
		p.pos++
		count, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, syntaxErrorf("dice count %q is not an integer", text)
		}
		sidesStart := p.pos
		for !p.eof() && isDigit(p.peek()) {
			p.pos++
		}
		if sidesStart == p.pos {
			return nil, syntaxErrorf("expected digit after 'd' at position %d", p.pos)
		}
		if !p.eof() && (isIdentPart(p.peek()) || p.peek() == '.') {
			return nil, syntaxErrorf("unexpected %q in dice at position %d", p.peek(), p.pos)
		}
		sides, err := strconv.ParseInt(p.src[sidesStart:p.pos], 10, 64)
		if err != nil {
			return nil, syntaxErrorf("dice sides %q out of range", p.src[sidesStart:p.pos])
		}
		if count <= 0 || sides <= 0 || count > maxDiceCount || sides > maxDiceSides {
			return nil, invalidDice(count, sides)
		}
		return diceNode{count: count, sides: sides}, nil
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, syntaxErrorf("invalid number %q", text)
	}
	if !p.eof() && isIdentStart(p.peek()) {
		return nil, syntaxErrorf("unexpected %q after number at position %d", p.peek(), p.pos)
	}
	return numberNode{value: value}, nil
}

func (p *parser) parseIdentifier() (node, error) {
	start := p.pos
	for !p.eof() && isIdentPart(p.peek()) {
		p.pos++
	}
	name := strings.ToLower(p.src[start:p.pos])

	p.skipSpace()
	if p.peek() != '(' {
		return varNode{name: name}, nil
	}
	p.pos++

	fn, ok := functions[name]
	if !ok {
		return nil, functionNotFound(name)
	}

	var args []node
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
	} else {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpace()
			if p.peek() == ',' {
				p.pos++
				continue
			}
			if p.peek() == ')' {
				p.pos++
				break
			}
			return nil, syntaxErrorf("expected ',' or ')' at position %d", p.pos)
		}
	}

	if len(args) != fn.arity {
		return nil, arityError(name, fn.arity, len(args))
	}
	return callNode{name: name, fn: fn, args: args}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
