package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/model"
)

// Who handles "who": lists online players.
type Who struct {
	world World
}

func NewWho(world World) *Who {
	return &Who{world: world}
}

func (c *Who) Info() command.Info {
	return command.Info{
		Name:           "who",
		Category:       command.CategoryInformation,
		Description:    "List the players online.",
		Usage:          "who",
		Privilege:      model.PrivilegeGuest,
		UsableFighting: true,
		UsableSitting:  true,
	}
}

func (c *Who) Handle(_ context.Context, req *command.Request) error {
	players := c.world.Players()

	var b strings.Builder
	b.WriteString("Players\n-------")
	for _, p := range players {
		tag := ""
		if info := p.Privilege().Info(); info != nil && info.IsStaff {
			tag = " (" + p.Privilege().String() + ")"
		}
		fmt.Fprintf(&b, "\n[%3d] %s%s", p.Level(), p.Name(), tag)
	}
	fmt.Fprintf(&b, "\n%d player(s) online.", len(players))
	req.Reply(b.String())
	return nil
}
