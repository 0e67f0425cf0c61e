// Package formula evaluates the small arithmetic and dice expressions used
// by effect definitions ("2d6 + level/2", "max(1, skill - 20)").
package formula

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand/v2"
	"sync"
)

// Evaluator evaluates formulas with its own random source.
// An Evaluator is NOT safe for concurrent use: give each worker its own,
// or borrow one from a Pool.
type Evaluator struct {
	rng *rand.Rand
}

// NewEvaluator creates an evaluator with a deterministic seed.
func NewEvaluator(seed uint64) *Evaluator {
	return &Evaluator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewSeededEvaluator creates an evaluator seeded from crypto/rand.
func NewSeededEvaluator() *Evaluator {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic("formula: reading random seed: " + err.Error())
	}
	return NewEvaluator(binary.LittleEndian.Uint64(b[:]))
}

// Evaluate parses and evaluates expr against ctx.
// The result is rounded to the nearest integer, halves away from zero.
func (e *Evaluator) Evaluate(expr string, ctx *Context) (int64, error) {
	x, err := Compile(expr)
	if err != nil {
		return 0, err
	}
	return e.Eval(x, ctx)
}

// Eval evaluates a compiled expression against ctx.
func (e *Evaluator) Eval(x *Expression, ctx *Context) (int64, error) {
	v, err := x.root.eval(e, ctx)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt64 {
		return 0, notFinite()
	}
	return int64(math.Round(v)), nil
}

// Roll sums count uniform draws in [1, sides].
func (e *Evaluator) Roll(count, sides int64) (int64, error) {
	if count <= 0 || sides <= 0 || count > maxDiceCount || sides > maxDiceSides {
		return 0, invalidDice(count, sides)
	}
	var total int64
	for range count {
		total += e.rng.Int64N(sides) + 1
	}
	return total, nil
}

// Percent returns a uniform draw in [1, 100].
func (e *Evaluator) Percent() int {
	return e.rng.IntN(100) + 1
}

// Chance reports whether a percent roll succeeds. Values outside 0..100
// are clamped; 0 never succeeds and 100 always does, without drawing.
func (e *Evaluator) Chance(percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return e.Percent() <= percent
}

// Pool hands out evaluators so that concurrent workers never share a
// random source.
type Pool struct {
	p sync.Pool
}

// NewPool creates a pool of crypto-seeded evaluators.
func NewPool() *Pool {
	return &Pool{p: sync.Pool{New: func() any { return NewSeededEvaluator() }}}
}

// Get borrows an evaluator. Return it with Put.
func (p *Pool) Get() *Evaluator {
	return p.p.Get().(*Evaluator)
}

// Put returns an evaluator to the pool.
func (p *Pool) Put(e *Evaluator) {
	p.p.Put(e)
}

// Evaluate evaluates expr with a borrowed evaluator.
func (p *Pool) Evaluate(expr string, ctx *Context) (int64, error) {
	e := p.Get()
	defer p.Put(e)
	return e.Evaluate(expr, ctx)
}
