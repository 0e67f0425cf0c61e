package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// Alias handles "alias [name [expansion]]". Expansions may hold several
// commands separated by ';' and "$*" for the words typed after the alias.
type Alias struct{}

func (c *Alias) Info() command.Info {
	return command.Info{
		Name:           "alias",
		Category:       command.CategoryUtility,
		Description:    "Define, show or list personal aliases.",
		Usage:          "alias [name [expansion]]",
		Privilege:      model.PrivilegePlayer,
		UsableFighting: true,
		UsableSitting:  true,
		UsableSleeping: true,
	}
}

func (c *Alias) Handle(_ context.Context, req *command.Request) error {
	p, ok := req.Actor.AsPlayer()
	if !ok {
		return errs.InvalidStatef("Only players have aliases.")
	}

	name := strings.ToLower(req.Arg(0))
	if name == "" {
		names := p.AliasNames()
		if len(names) == 0 {
			req.Reply("You have no aliases defined.")
			return nil
		}
		var b strings.Builder
		b.WriteString("Your aliases:")
		for _, n := range names {
			exp, _ := p.Alias(n)
			fmt.Fprintf(&b, "\n%-12s %s", n, exp)
		}
		req.Reply(b.String())
		return nil
	}

	_, expansion, _ := strings.Cut(req.Argument(), " ")
	expansion = strings.TrimSpace(expansion)
	if expansion == "" {
		exp, ok := p.Alias(name)
		if !ok {
			return errs.NotFoundf("No such alias.")
		}
		req.Replyf("%s: %s", name, exp)
		return nil
	}

	if name == "alias" || name == "unalias" {
		return errs.InvalidArgumentf("You can't alias that.")
	}
	if !p.SetAlias(name, expansion) {
		return errs.InvalidStatef("You have too many aliases (max %d).", model.MaxAliases)
	}
	req.Reply("Alias set.")
	return nil
}

// Unalias handles "unalias <name>".
type Unalias struct{}

func (c *Unalias) Info() command.Info {
	return command.Info{
		Name:           "unalias",
		Category:       command.CategoryUtility,
		Description:    "Remove a personal alias.",
		Usage:          "unalias <name>",
		Privilege:      model.PrivilegePlayer,
		UsableFighting: true,
		UsableSitting:  true,
		UsableSleeping: true,
	}
}

func (c *Unalias) Handle(_ context.Context, req *command.Request) error {
	p, ok := req.Actor.AsPlayer()
	if !ok {
		return errs.InvalidStatef("Only players have aliases.")
	}
	name := req.Arg(0)
	if name == "" {
		return errs.InvalidArgumentf("Remove which alias?")
	}
	if !p.RemoveAlias(name) {
		return errs.NotFoundf("No such alias.")
	}
	req.Reply("Alias removed.")
	return nil
}
