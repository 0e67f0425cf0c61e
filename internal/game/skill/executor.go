package skill

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/formula"
)

// FailurePolicy decides what a failing effect does to its siblings.
type FailurePolicy uint8

const (
	// Accumulate records the failure and keeps executing remaining effects.
	Accumulate FailurePolicy = iota
	// FailFast stops at the first failing effect.
	FailFast
)

func (p FailurePolicy) String() string {
	if p == FailFast {
		return "fail_fast"
	}
	return "accumulate"
}

// ParseFailurePolicy parses "accumulate" or "fail_fast".
func ParseFailurePolicy(s string) (FailurePolicy, bool) {
	switch s {
	case "accumulate", "":
		return Accumulate, true
	case "fail_fast", "failfast":
		return FailFast, true
	}
	return 0, false
}

// ConditionEvaluator evaluates guard conditions of ability links.
type ConditionEvaluator interface {
	EvaluateCondition(expr string, vars map[string]int64) (bool, error)
}

// Definitions resolves effect definitions by id.
type Definitions interface {
	Effect(id int32) (*catalog.EffectDefinition, error)
}

// Interrupter cancels pending casts.
type Interrupter interface {
	Interrupt(actorID string) bool
}

// EffectResult is the outcome of one effect.
type EffectResult struct {
	EffectID int32
	Kind     catalog.EffectKind
	// Applied is false when the chance roll failed or nothing changed.
	Applied bool
	// Resisted is set when the chance roll failed.
	Resisted bool
	Value    int64

	ToActor  string
	ToTarget string
	ToRoom   string

	// Active is set for effects with a non-zero duration.
	Active *ActiveEffect
}

// BatchResult collects the results of ExecuteAbilityEffects in execution order.
type BatchResult struct {
	Results []EffectResult
	Errors  []error
	// Skipped counts links filtered out by their guard condition.
	Skipped int
}

// Err joins all accumulated errors; nil when every effect succeeded.
func (b *BatchResult) Err() error {
	return errors.Join(b.Errors...)
}

// Executor applies typed effects.
type Executor struct {
	defs       Definitions
	effects    *EffectManagers
	conditions ConditionEvaluator
	casts      Interrupter
	policy     FailurePolicy
	handlers   map[catalog.EffectKind]Handler

	compiled sync.Map // formula source → *formula.Expression
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

func WithConditionEvaluator(c ConditionEvaluator) ExecutorOption {
	return func(ex *Executor) { ex.conditions = c }
}

func WithInterrupter(i Interrupter) ExecutorOption {
	return func(ex *Executor) { ex.casts = i }
}

func WithFailurePolicy(p FailurePolicy) ExecutorOption {
	return func(ex *Executor) { ex.policy = p }
}

// NewExecutor creates an executor. effects may be nil when no handler
// needs active-effect bookkeeping (cleanse/dispel then become no-ops).
func NewExecutor(defs Definitions, effects *EffectManagers, opts ...ExecutorOption) *Executor {
	ex := &Executor{
		defs:     defs,
		effects:  effects,
		handlers: defaultHandlers(),
	}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

// SetInterrupter wires the cast manager after construction.
func (ex *Executor) SetInterrupter(i Interrupter) {
	ex.casts = i
}

func (ex *Executor) Policy() FailurePolicy { return ex.policy }

// Execute applies one effect definition with the given parameters.
// A failed chance roll is a successful no-op.
func (ex *Executor) Execute(def *catalog.EffectDefinition, params map[string]string, ectx *EffectContext) (EffectResult, error) {
	res := EffectResult{EffectID: def.ID, Kind: def.Kind}

	handler, ok := ex.handlers[def.Kind]
	if !ok {
		return res, errs.NotFoundf("no handler for effect kind %s", def.Kind)
	}

	// Chance is rolled before any formula is evaluated.
	if ectx.Link != nil && !ectx.Eval.Chance(int(ectx.Link.ChancePercent)) {
		res.Resisted = true
		return res, nil
	}
	if expr, ok := params["chance"]; ok {
		chance, err := ex.eval(expr, ectx)
		if err != nil {
			return res, fmt.Errorf("effect %d chance: %w", def.ID, err)
		}
		if !ectx.Eval.Chance(int(chance)) {
			res.Resisted = true
			return res, nil
		}
	}

	resolved, err := ex.resolve(params, ectx)
	if err != nil {
		return res, fmt.Errorf("effect %d (%s): %w", def.ID, def.Name, err)
	}

	out, err := handler(ex, def, resolved, ectx)
	out.EffectID, out.Kind = def.ID, def.Kind
	if err != nil {
		return out, fmt.Errorf("effect %d (%s): %w", def.ID, def.Name, err)
	}
	return out, nil
}

// resolve evaluates every formula parameter. One failure aborts all.
func (ex *Executor) resolve(params map[string]string, ectx *EffectContext) (Params, error) {
	p := Params{num: make(map[string]int64, len(params)), text: make(map[string]string)}
	for key, expr := range params {
		if key == "chance" {
			continue
		}
		if catalog.IsTextParam(key) {
			p.text[key] = expr
			continue
		}
		v, err := ex.eval(expr, ectx)
		if err != nil {
			return Params{}, fmt.Errorf("param %q: %w", key, err)
		}
		p.num[key] = v
	}
	return p, nil
}

func (ex *Executor) eval(expr string, ectx *EffectContext) (int64, error) {
	if cached, ok := ex.compiled.Load(expr); ok {
		return ectx.Eval.Eval(cached.(*formula.Expression), ectx.Formula)
	}
	x, err := formula.Compile(expr)
	if err != nil {
		return 0, err
	}
	ex.compiled.Store(expr, x)
	return ectx.Eval.Eval(x, ectx.Formula)
}

// ExecuteAbilityEffects runs the links of one phase in Order (ties keep
// input order). Guard conditions are evaluated before each effect.
// Under Accumulate a failing effect does not stop its siblings.
func (ex *Executor) ExecuteAbilityEffects(links []catalog.AbilityEffect, ectx *EffectContext, phase catalog.Phase) *BatchResult {
	batch := &BatchResult{}

	ordered := slices.Clone(links)
	slices.SortStableFunc(ordered, func(a, b catalog.AbilityEffect) int {
		return cmp.Compare(a.Order, b.Order)
	})

	for i := range ordered {
		link := &ordered[i]
		if link.Phase != phase {
			continue
		}

		if link.Condition != "" {
			pass, err := ex.checkCondition(link.Condition, ectx)
			if err != nil {
				batch.Errors = append(batch.Errors, fmt.Errorf("ability %d effect %d condition: %w", link.AbilityID, link.EffectID, err))
				if ex.policy == FailFast {
					break
				}
				continue
			}
			if !pass {
				batch.Skipped++
				continue
			}
		}

		def, err := ex.defs.Effect(link.EffectID)
		if err != nil {
			batch.Errors = append(batch.Errors, err)
			if ex.policy == FailFast {
				break
			}
			continue
		}

		prev := ectx.Link
		ectx.Link = link
		res, err := ex.Execute(def, link.Params(def), ectx)
		ectx.Link = prev

		if err != nil {
			slog.Debug("effect failed",
				"ability", link.AbilityID,
				"effect", link.EffectID,
				"error", err)
			batch.Errors = append(batch.Errors, err)
			if ex.policy == FailFast {
				break
			}
			continue
		}
		if res.Active != nil {
			res.Active.AbilityID = link.AbilityID
			res.Active.Formula = ectx.Formula
			res.Active.SkillLevel = ectx.SkillLevel
		}
		batch.Results = append(batch.Results, res)
	}
	return batch
}

func (ex *Executor) checkCondition(expr string, ectx *EffectContext) (bool, error) {
	if ex.conditions == nil {
		return false, errs.InvalidStatef("no condition evaluator for %q", expr)
	}
	return ex.conditions.EvaluateCondition(expr, ectx.Formula.Vars())
}
