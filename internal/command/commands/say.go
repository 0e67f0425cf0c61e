package commands

import (
	"context"
	"fmt"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// Say handles "say <message>".
type Say struct{}

func (c *Say) Info() command.Info {
	return command.Info{
		Name:           "say",
		Category:       command.CategoryCommunication,
		Description:    "Speak to everyone in the room.",
		Usage:          "say <message>",
		Privilege:      model.PrivilegeGuest,
		UsableFighting: true,
		UsableSitting:  true,
	}
}

func (c *Say) Handle(_ context.Context, req *command.Request) error {
	msg := req.Argument()
	if msg == "" {
		return errs.InvalidArgumentf("Say what?")
	}
	req.Replyf("You say, '%s'", msg)
	if room := req.Actor.Room(); room != nil {
		room.Broadcast(fmt.Sprintf("%s says, '%s'", req.Actor.Name(), msg), req.Actor)
	}
	return nil
}
