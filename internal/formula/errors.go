package formula

import (
	"errors"
	"fmt"

	"github.com/udisondev/mudcore/internal/errs"
)

var (
	ErrSyntax           = errors.New("syntax error")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrVariableNotFound = errors.New("variable not found")
	ErrFunctionNotFound = errors.New("function not found")
	ErrArity            = errors.New("wrong number of arguments")
	ErrInvalidDice      = errors.New("invalid dice")
	ErrNotFinite        = errors.New("result is not a finite number")
)

func syntaxErrorf(format string, args ...any) error {
	return errs.WrapWithCode(ErrSyntax, errs.CodeParse, fmt.Sprintf(format, args...))
}

func divisionByZero() error {
	return errs.WrapWithCode(ErrDivisionByZero, errs.CodeInvalidArgument, "division by zero")
}

func variableNotFound(name string) error {
	return errs.WrapWithCode(ErrVariableNotFound, errs.CodeNotFound, fmt.Sprintf("unknown variable %q", name))
}

func functionNotFound(name string) error {
	return errs.WrapWithCode(ErrFunctionNotFound, errs.CodeNotFound, fmt.Sprintf("function %q not found", name))
}

func arityError(name string, want, got int) error {
	return errs.WrapWithCode(ErrArity, errs.CodeInvalidArgument,
		fmt.Sprintf("%s expects %d argument(s), got %d", name, want, got))
}

func invalidDice(count, sides int64) error {
	return errs.WrapWithCode(ErrInvalidDice, errs.CodeInvalidArgument,
		fmt.Sprintf("cannot roll %dd%d", count, sides))
}

func notFinite() error {
	return errs.WrapWithCode(ErrNotFinite, errs.CodeInvalidArgument, "formula result is not finite")
}
