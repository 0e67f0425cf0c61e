package commands

import (
	"context"
	"fmt"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// Release handles "release". A dead character becomes a ghost; a ghost
// returns to the living with one hit point.
type Release struct{}

func (c *Release) Info() command.Info {
	return command.Info{
		Name:        "release",
		Category:    command.CategoryUtility,
		Description: "Release your spirit, or return from the dead.",
		Usage:       "release",
		Privilege:   model.PrivilegeGuest,
	}
}

func (c *Release) Handle(_ context.Context, req *command.Request) error {
	actor := req.Actor
	room := actor.Room()

	switch actor.Position() {
	case model.PositionDead:
		actor.SetPosition(model.PositionGhost)
		req.Reply("You release your spirit from your corpse.")
		if room != nil {
			room.Broadcast(fmt.Sprintf("The spirit of %s rises from its corpse.", actor.Name()), actor)
		}
	case model.PositionGhost:
		if actor.Resource(model.ResourceHP) < 1 {
			actor.AdjustResource(model.ResourceHP, 1)
		}
		actor.SetPosition(model.PositionStanding)
		req.Reply("You return to the living.")
		if room != nil {
			room.Broadcast(fmt.Sprintf("%s takes solid form again.", actor.Name()), actor)
		}
	default:
		return errs.InvalidStatef("You are not dead.")
	}
	return nil
}
