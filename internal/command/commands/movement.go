package commands

import (
	"context"
	"fmt"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// moveCost is the movement points spent per room.
const moveCost = 1

// Move handles the six direction commands.
type Move struct {
	dir model.Direction
}

func (c *Move) Info() command.Info {
	name := c.dir.String()
	return command.Info{
		Name:        name,
		Aliases:     []string{name[:1]},
		Category:    command.CategoryMovement,
		Description: "Walk " + name + ".",
		Usage:       name,
		Privilege:   model.PrivilegeGuest,
	}
}

func (c *Move) Handle(_ context.Context, req *command.Request) error {
	actor := req.Actor
	from := actor.Room()
	if from == nil {
		return errs.InvalidStatef("You are floating in the void.")
	}
	to, ok := from.Exit(c.dir)
	if !ok {
		return errs.NotFoundf("Alas, you cannot go that way.")
	}
	if actor.Resource(model.ResourceMoves) < moveCost {
		return errs.InvalidStatef("You are too exhausted.")
	}

	if err := to.Enter(actor); err != nil {
		return fmt.Errorf("entering room %d: %w", to.ID(), err)
	}
	actor.AdjustResource(model.ResourceMoves, -moveCost)

	from.Broadcast(fmt.Sprintf("%s leaves %s.", actor.Name(), c.dir), actor)
	to.Broadcast(fmt.Sprintf("%s arrives from the %s.", actor.Name(), c.dir.Reverse()), actor)
	describeRoom(actor, to)
	return nil
}
