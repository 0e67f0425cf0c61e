package commands

import (
	"context"
	"strconv"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// Cast handles "cast '<spell>' [target] [circle]". Casting completes
// asynchronously after the spell's cast time.
type Cast struct {
	casts Caster
}

func NewCast(casts Caster) *Cast {
	return &Cast{casts: casts}
}

func (c *Cast) Info() command.Info {
	return command.Info{
		Name:           "cast",
		Aliases:        []string{"c"},
		Category:       command.CategoryAbility,
		Description:    "Cast a spell.",
		Usage:          "cast '<spell>' [target] [circle]",
		Privilege:      model.PrivilegeGuest,
		UsableFighting: true,
	}
}

func (c *Cast) Handle(ctx context.Context, req *command.Request) error {
	if c.casts == nil || req.Dispatcher.Abilities() == nil {
		return errs.InvalidStatef("Magic does not work here.")
	}
	name := req.Arg(0)
	if name == "" {
		return errs.InvalidArgumentf("Cast what where?")
	}
	ability, err := req.Dispatcher.Abilities().Catalog().AbilityByName(name)
	if err != nil {
		if errs.IsNotFound(err) {
			return errs.NotFoundf("You do not know any spell called '%s'.", name)
		}
		return err
	}
	if ability.Kind != catalog.KindSpell {
		return errs.InvalidArgumentf("%s is not a spell; just use it.", ability.Name)
	}
	if c.casts.IsCasting(req.Actor.ID()) {
		return errs.InvalidStatef("You are already casting.")
	}

	var target model.Actor
	if who := req.Arg(1); who != "" {
		room := req.Actor.Room()
		if room == nil {
			return errs.NotFoundf("They aren't here.")
		}
		t, ok := room.Find(who, nil)
		if !ok {
			return errs.NotFoundf("They aren't here.")
		}
		target = t
	}

	var circle int32
	if s := req.Arg(2); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil || n < 1 {
			return errs.InvalidArgumentf("Invalid circle %q.", s)
		}
		circle = int32(n)
	}

	return c.casts.BeginCasting(ctx, req.Actor, ability.ID, target, circle)
}
