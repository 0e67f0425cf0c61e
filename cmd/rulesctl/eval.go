package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/udisondev/mudcore/internal/formula"
)

var (
	evalVars  map[string]int64
	evalSeed  uint64
	evalRolls int
)

var evalCmd = &cobra.Command{
	Use:   "eval <formula>",
	Short: "Evaluate a formula",
	Long: `Evaluate a formula against custom variables, e.g.

  rulesctl eval "2d6 + level / 2" --var level=20 --rolls 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringToInt64Var(&evalVars, "var", nil, "Variable binding name=value (repeatable)")
	evalCmd.Flags().Uint64Var(&evalSeed, "seed", 0, "Dice seed; 0 picks a random seed")
	evalCmd.Flags().IntVar(&evalRolls, "rolls", 1, "Number of evaluations")
}

func runEval(_ *cobra.Command, args []string) error {
	expr := strings.Join(args, " ")
	compiled, err := formula.Compile(expr)
	if err != nil {
		return fmt.Errorf("compiling %q: %w", expr, err)
	}

	ev := formula.NewSeededEvaluator()
	if evalSeed != 0 {
		ev = formula.NewEvaluator(evalSeed)
	}

	ctx := &formula.Context{}
	for name, v := range evalVars {
		ctx.Set(name, v)
	}

	for range max(evalRolls, 1) {
		v, err := ev.Eval(compiled, ctx)
		if err != nil {
			return fmt.Errorf("evaluating %q: %w", expr, err)
		}
		fmt.Println(v)
	}
	return nil
}
