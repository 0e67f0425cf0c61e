package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// Abilities handles "abilities [all]": lists known abilities with proficiency.
type Abilities struct{}

func (c *Abilities) Info() command.Info {
	return command.Info{
		Name:           "abilities",
		Aliases:        []string{"skills", "spells"},
		Category:       command.CategoryInformation,
		Description:    "List the abilities you know.",
		Usage:          "abilities [all]",
		Privilege:      model.PrivilegeGuest,
		UsableFighting: true,
		UsableSitting:  true,
	}
}

func (c *Abilities) Handle(_ context.Context, req *command.Request) error {
	ax := req.Dispatcher.Abilities()
	if ax == nil {
		return errs.InvalidStatef("Abilities are not available.")
	}
	all := strings.EqualFold(req.Arg(0), "all")

	var b strings.Builder
	n := 0
	for _, ab := range ax.Catalog().Abilities() {
		lvl, known := req.Actor.SkillLevel(ab.Key())
		if !known && !all {
			continue
		}
		prof := "-"
		if known {
			prof = fmt.Sprintf("%d%%", lvl)
		}
		if n > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-20s %-6s %s", ab.Name, ab.Kind, prof)
		n++
	}
	if n == 0 {
		req.Reply("You do not know any abilities.")
		return nil
	}
	req.Reply(b.String())
	return nil
}
