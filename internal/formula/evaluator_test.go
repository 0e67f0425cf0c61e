package formula

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/mudcore/internal/errs"
)

func TestEvaluate_Arithmetic(t *testing.T) {
	e := NewEvaluator(1)
	ctx := &Context{}

	tests := []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 4 - 3", 3},
		{"20 / 4 / 5", 1},
		{"-3 + 5", 2},
		{"+4", 4},
		{"2 * -3", -6},
		{"7 / 2", 4},
		{"-7 / 2", -4},
		{"5 / 3", 2},
		{"1.5 * 3", 5},
		{"pow(2, 10)", 1024},
		{"min(3, 9) + max(3, 9)", 12},
		{"abs(-12)", 12},
		{"floor(7 / 2)", 3},
		{"ceil(7 / 2)", 4},
		{"round(2.5)", 3},
		{"MAX(1, 2)", 2},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Variables(t *testing.T) {
	e := NewEvaluator(1)
	ctx := &Context{SkillLevel: 50, ActorLevel: 10, StrBonus: 3}
	ctx.Set("Circle", 4)

	got, err := e.Evaluate("skill / 2 + level * str_bonus + circle", ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(25+30+4), got)
}

func TestEvaluate_UnknownVariableAbortsExpression(t *testing.T) {
	e := NewEvaluator(1)

	_, err := e.Evaluate("1 + 2 + mystery", &Context{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVariableNotFound)
	assert.True(t, errs.IsNotFound(err))

	_, err = e.Evaluate("level", nil)
	assert.ErrorIs(t, err, ErrVariableNotFound)
}

func TestEvaluate_DivisionByZero(t *testing.T) {
	e := NewEvaluator(1)

	_, err := e.Evaluate("4/0", &Context{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.True(t, errs.IsInvalidArgument(err))

	_, err = e.Evaluate("4 / (level - level)", &Context{ActorLevel: 3})
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestEvaluate_DiceBounds(t *testing.T) {
	e := NewEvaluator(42)

	for _, tc := range []struct {
		expr   string
		lo, hi int64
	}{
		{"1d1", 1, 1},
		{"1d6", 1, 6},
		{"3d6", 3, 18},
		{"10d4", 10, 40},
		{"2D20", 2, 40},
		{"dice(4, 8)", 4, 32},
		{"roll_dice(2, 3)", 2, 6},
	} {
		for range 500 {
			got, err := e.Evaluate(tc.expr, &Context{})
			require.NoError(t, err, tc.expr)
			require.GreaterOrEqual(t, got, tc.lo, tc.expr)
			require.LessOrEqual(t, got, tc.hi, tc.expr)
		}
	}
}

func TestEvaluate_DiceErrors(t *testing.T) {
	e := NewEvaluator(1)

	_, err := e.Evaluate("2dx", &Context{})
	assert.True(t, errs.IsParse(err), "non-digit after d: %v", err)

	_, err = e.Evaluate("2d", &Context{})
	assert.True(t, errs.IsParse(err))

	_, err = e.Evaluate("0d6", &Context{})
	assert.ErrorIs(t, err, ErrInvalidDice)

	_, err = e.Evaluate("dice(0, 6)", &Context{})
	assert.ErrorIs(t, err, ErrInvalidDice)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		expr string
		want error
		code errs.Code
	}{
		{"", ErrSyntax, errs.CodeParse},
		{"1 +", ErrSyntax, errs.CodeParse},
		{"(1 + 2", ErrSyntax, errs.CodeParse},
		{"1 2", ErrSyntax, errs.CodeParse},
		{"3level", ErrSyntax, errs.CodeParse},
		{"--1", ErrSyntax, errs.CodeParse},
		{"sqrt(4)", ErrFunctionNotFound, errs.CodeNotFound},
		{"pow(2)", ErrArity, errs.CodeInvalidArgument},
		{"abs(1, 2)", ErrArity, errs.CodeInvalidArgument},
		{"min()", ErrArity, errs.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := Validate(tt.expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.code, errs.CodeOf(err))
		})
	}
}

func TestEval_NotFinite(t *testing.T) {
	_, err := NewEvaluator(1).Evaluate("pow(10, 400)", &Context{})
	assert.ErrorIs(t, err, ErrNotFinite)
}

func TestChance_Extremes(t *testing.T) {
	e := NewEvaluator(7)
	for range 100 {
		assert.False(t, e.Chance(0))
		assert.True(t, e.Chance(100))
	}
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPool()
	ctx := &Context{ActorLevel: 5}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				v, err := p.Evaluate("1d6 + level", ctx)
				if err != nil || v < 6 || v > 11 {
					t.Errorf("unexpected result %d, %v", v, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestContext_Vars(t *testing.T) {
	ctx := &Context{SkillLevel: 12}
	ctx.Set("bonus", 3)

	vars := ctx.Vars()
	assert.Equal(t, int64(12), vars["skill"])
	assert.Equal(t, int64(3), vars["bonus"])

	cp := ctx.Clone()
	cp.Set("bonus", 9)
	v, _ := ctx.Lookup("bonus")
	assert.Equal(t, int64(3), v)
}
