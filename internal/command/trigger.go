package command

import (
	"context"

	"github.com/udisondev/mudcore/internal/model"
)

// TriggerOutcome is the answer of a trigger script.
type TriggerOutcome uint8

const (
	TriggerContinue TriggerOutcome = iota
	// TriggerHalt means the script fully handled the input.
	TriggerHalt
	TriggerError
)

func (o TriggerOutcome) String() string {
	switch o {
	case TriggerHalt:
		return "halt"
	case TriggerError:
		return "error"
	}
	return "continue"
}

// TriggerDispatcher runs the command trigger attached to owner.
type TriggerDispatcher interface {
	DispatchCommand(ctx context.Context, owner *model.Mobile, actor model.Actor, command, argument string) (TriggerOutcome, error)
}
