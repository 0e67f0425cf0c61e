package formula

import (
	"math"
)

const (
	maxDiceCount = 1000
	maxDiceSides = 1_000_000
)

type node interface {
	eval(e *Evaluator, ctx *Context) (float64, error)
}

type numberNode struct {
	value float64
}

func (n numberNode) eval(*Evaluator, *Context) (float64, error) {
	return n.value, nil
}

type diceNode struct {
	count int64
	sides int64
}

func (n diceNode) eval(e *Evaluator, _ *Context) (float64, error) {
	total, err := e.Roll(n.count, n.sides)
	return float64(total), err
}

type unaryNode struct {
	operand node
}

func (n unaryNode) eval(e *Evaluator, ctx *Context) (float64, error) {
	v, err := n.operand.eval(e, ctx)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type binaryNode struct {
	op          byte
	left, right node
}

func (n binaryNode) eval(e *Evaluator, ctx *Context) (float64, error) {
	l, err := n.left.eval(e, ctx)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(e, ctx)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, divisionByZero()
		}
		return l / r, nil
	}
	return 0, syntaxErrorf("unknown operator %q", n.op)
}

type varNode struct {
	name string
}

func (n varNode) eval(_ *Evaluator, ctx *Context) (float64, error) {
	v, ok := ctx.Lookup(n.name)
	if !ok {
		return 0, variableNotFound(n.name)
	}
	return float64(v), nil
}

type callNode struct {
	name string
	fn   function
	args []node
}

func (n callNode) eval(e *Evaluator, ctx *Context) (float64, error) {
	vals := make([]float64, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(e, ctx)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	return n.fn.call(e, vals)
}

type function struct {
	arity int
	call  func(e *Evaluator, args []float64) (float64, error)
}

var functions = map[string]function{
	"pow":       {2, func(_ *Evaluator, a []float64) (float64, error) { return math.Pow(a[0], a[1]), nil }},
	"min":       {2, func(_ *Evaluator, a []float64) (float64, error) { return math.Min(a[0], a[1]), nil }},
	"max":       {2, func(_ *Evaluator, a []float64) (float64, error) { return math.Max(a[0], a[1]), nil }},
	"abs":       {1, func(_ *Evaluator, a []float64) (float64, error) { return math.Abs(a[0]), nil }},
	"floor":     {1, func(_ *Evaluator, a []float64) (float64, error) { return math.Floor(a[0]), nil }},
	"ceil":      {1, func(_ *Evaluator, a []float64) (float64, error) { return math.Ceil(a[0]), nil }},
	"round":     {1, func(_ *Evaluator, a []float64) (float64, error) { return math.Round(a[0]), nil }},
	"dice":      {2, rollFunc},
	"roll_dice": {2, rollFunc},
}

func rollFunc(e *Evaluator, a []float64) (float64, error) {
	total, err := e.Roll(int64(math.Round(a[0])), int64(math.Round(a[1])))
	return float64(total), err
}
