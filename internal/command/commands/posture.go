package commands

import (
	"context"
	"fmt"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// Posture handles stand, sit, rest, sleep and wake.
type Posture struct {
	name string
	to   model.Position
}

func (c *Posture) Info() command.Info {
	info := command.Info{
		Name:          c.name,
		Category:      command.CategoryPosture,
		Description:   fmt.Sprintf("Change position (%s).", c.to),
		Usage:         c.name,
		Privilege:     model.PrivilegeGuest,
		UsableSitting: true,
	}
	if c.to == model.PositionStanding {
		info.UsableFighting = true
	}
	return info
}

func (c *Posture) Handle(_ context.Context, req *command.Request) error {
	actor := req.Actor
	from := actor.Position()

	if c.name == "wake" && from != model.PositionSleeping {
		return errs.InvalidStatef("You are already awake.")
	}
	if from == c.to || (from == model.PositionFighting && c.to == model.PositionStanding) {
		return errs.InvalidStatef("You are already %s.", from)
	}

	actor.SetPosition(c.to)
	req.Reply(postureMessages[c.name][0])
	if room := actor.Room(); room != nil {
		room.Broadcast(fmt.Sprintf(postureMessages[c.name][1], actor.Name()), actor)
	}
	return nil
}

var postureMessages = map[string][2]string{
	"stand": {"You stand up.", "%s stands up."},
	"sit":   {"You sit down.", "%s sits down."},
	"rest":  {"You sit down and rest your tired bones.", "%s sits down and rests."},
	"sleep": {"You go to sleep.", "%s lies down and falls asleep."},
	"wake":  {"You awaken and stand up.", "%s awakens and stands up."},
}
