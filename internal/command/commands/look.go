package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// Look handles "look [target]".
type Look struct{}

func (c *Look) Info() command.Info {
	return command.Info{
		Name:           "look",
		Aliases:        []string{"l"},
		Category:       command.CategoryInformation,
		Description:    "Look around, or at someone.",
		Usage:          "look [target]",
		Privilege:      model.PrivilegeGuest,
		UsableFighting: true,
		UsableSitting:  true,
	}
}

func (c *Look) Handle(_ context.Context, req *command.Request) error {
	room := req.Actor.Room()
	if room == nil {
		return errs.InvalidStatef("You see nothing but void.")
	}
	if name := req.Arg(0); name != "" {
		target, ok := room.Find(name, nil)
		if !ok {
			return errs.NotFoundf("You do not see that here.")
		}
		req.Replyf("%s is %s. %s", target.Name(), target.Position(), condition(target))
		return nil
	}
	describeRoom(req.Actor, room)
	return nil
}

func describeRoom(viewer model.Actor, room *model.Room) {
	var b strings.Builder
	b.WriteString(room.Name())

	exits := room.Exits()
	names := make([]string, len(exits))
	for i, d := range exits {
		names[i] = d.String()
	}
	if len(names) == 0 {
		names = append(names, "none")
	}
	fmt.Fprintf(&b, "\n[Exits: %s]", strings.Join(names, " "))

	for _, a := range room.Occupants() {
		if a.ID() == viewer.ID() || !canSee(viewer, a) {
			continue
		}
		fmt.Fprintf(&b, "\n%s is %s here.", a.Name(), a.Position())
	}
	viewer.Send(b.String())
}

// flagHidden is set by the hide skill.
const flagHidden = "hidden"

func canSee(viewer, a model.Actor) bool {
	return !a.HasFlag(flagHidden) || viewer.Perception() > a.Concealment()
}

// condition describes remaining health in words.
func condition(a model.Actor) string {
	hp, maxHP := a.Resource(model.ResourceHP), a.MaxResource(model.ResourceHP)
	switch pct := hp * 100 / maxHP; {
	case pct >= 100:
		return "They are in excellent condition."
	case pct >= 75:
		return "They have a few scratches."
	case pct >= 50:
		return "They have some nasty wounds."
	case pct >= 25:
		return "They are bleeding freely."
	case pct > 0:
		return "They are in awful condition."
	}
	return "They are dead."
}
