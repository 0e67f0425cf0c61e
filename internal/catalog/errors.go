package catalog

import (
	"errors"
	"fmt"

	"github.com/udisondev/mudcore/internal/errs"
)

var (
	ErrAbilityNotFound = errors.New("ability not found")
	ErrEffectNotFound  = errors.New("effect not found")
	ErrNotLoaded       = errors.New("catalog not loaded")
	ErrInvalidRecord   = errors.New("invalid catalog record")
)

func invalidRecord(format string, args ...any) error {
	return errs.WrapWithCode(ErrInvalidRecord, errs.CodeInvalidArgument, fmt.Sprintf(format, args...))
}

func notLoaded() error {
	return errs.WrapWithCode(ErrNotLoaded, errs.CodeInvalidState, "catalog not loaded")
}
