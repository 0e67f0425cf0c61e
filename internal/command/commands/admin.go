package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// MaxLevel bounds setlevel.
const MaxLevel = 100

// findTarget resolves a name against the actor's room, then online players.
// An empty name is the actor itself.
func findTarget(world World, actor model.Actor, name string) (model.Actor, error) {
	if name == "" {
		return actor, nil
	}
	if room := actor.Room(); room != nil {
		if t, ok := room.Find(name, nil); ok {
			return t, nil
		}
	}
	if world != nil {
		if p, ok := world.FindPlayer(name); ok {
			return p, nil
		}
	}
	return nil, errs.NotFoundf("Nobody called %q is around.", name)
}

// Heal handles "heal [target]": refills hit points, mana and moves.
type Heal struct {
	world World
}

func NewHeal(world World) *Heal {
	return &Heal{world: world}
}

func (c *Heal) Info() command.Info {
	return command.Info{
		Name:           "heal",
		Category:       command.CategoryAdmin,
		Description:    "Fully heal a character.",
		Usage:          "heal [target]",
		Privilege:      model.PrivilegeImmortal,
		UsableFighting: true,
		UsableSitting:  true,
	}
}

func (c *Heal) Handle(_ context.Context, req *command.Request) error {
	target, err := findTarget(c.world, req.Actor, req.Arg(0))
	if err != nil {
		return err
	}
	if target.IsDead() {
		return errs.InvalidStatef("%s is dead; use restore.", target.Name())
	}
	for _, r := range []model.Resource{model.ResourceHP, model.ResourceMana, model.ResourceMoves} {
		target.AdjustResource(r, target.MaxResource(r)-target.Resource(r))
	}
	if target.ID() == req.Actor.ID() {
		req.Reply("You heal yourself.")
		return nil
	}
	target.Send(req.Actor.Name() + " heals you.")
	req.Replyf("Healed %s.", target.Name())
	return nil
}

// Slay handles "slay <target>": kills outright.
type Slay struct {
	world World
}

func NewSlay(world World) *Slay {
	return &Slay{world: world}
}

func (c *Slay) Info() command.Info {
	return command.Info{
		Name:           "slay",
		Category:       command.CategoryAdmin,
		Description:    "Kill a character outright.",
		Usage:          "slay <target>",
		Privilege:      model.PrivilegeImmortal,
		UsableFighting: true,
	}
}

func (c *Slay) Handle(_ context.Context, req *command.Request) error {
	name := req.Arg(0)
	if name == "" {
		return errs.InvalidArgumentf("Slay whom?")
	}
	target, err := findTarget(c.world, req.Actor, name)
	if err != nil {
		return err
	}
	if target.ID() == req.Actor.ID() {
		return errs.InvalidArgumentf("Suicide is a mortal sin.")
	}
	if info := req.Actor.Privilege().Info(); info == nil || !info.CanSlay {
		return errs.PermissionDeniedf("You cannot slay.")
	}
	if target.Privilege() >= req.Actor.Privilege() {
		return errs.PermissionDeniedf("You cannot slay %s.", target.Name())
	}
	if target.IsDead() {
		return errs.InvalidStatef("%s is already dead.", target.Name())
	}

	target.AdjustResource(model.ResourceHP, -target.Resource(model.ResourceHP))
	target.Send(req.Actor.Name() + " slays you in cold blood!")
	req.Replyf("You slay %s.", target.Name())
	if room := target.Room(); room != nil {
		room.Broadcast(fmt.Sprintf("%s slays %s in cold blood!", req.Actor.Name(), target.Name()), req.Actor, target)
	}
	return nil
}

// Restore handles "restore [target]": refills every pool and raises the dead.
type Restore struct {
	world World
}

func NewRestore(world World) *Restore {
	return &Restore{world: world}
}

func (c *Restore) Info() command.Info {
	return command.Info{
		Name:           "restore",
		Category:       command.CategoryAdmin,
		Description:    "Restore a character, raising them if dead.",
		Usage:          "restore [target]",
		Privilege:      model.PrivilegeImmortal,
		UsableFighting: true,
		UsableSitting:  true,
	}
}

type restorer interface {
	Restore()
}

func (c *Restore) Handle(_ context.Context, req *command.Request) error {
	target, err := findTarget(c.world, req.Actor, req.Arg(0))
	if err != nil {
		return err
	}
	r, ok := target.(restorer)
	if !ok {
		return errs.InvalidArgumentf("%s cannot be restored.", target.Name())
	}
	r.Restore()
	if target.ID() != req.Actor.ID() {
		target.Send(req.Actor.Name() + " has restored you.")
	}
	req.Replyf("Restored %s.", target.Name())
	return nil
}

// SetLevel handles "setlevel <target> <level>".
type SetLevel struct {
	world World
}

func NewSetLevel(world World) *SetLevel {
	return &SetLevel{world: world}
}

func (c *SetLevel) Info() command.Info {
	return command.Info{
		Name:          "setlevel",
		Aliases:       []string{"set_level"},
		Category:      command.CategoryAdmin,
		Description:   "Change a character's level.",
		Usage:         "setlevel <target> <level>",
		Privilege:     model.PrivilegeAdmin,
		UsableSitting: true,
	}
}

type leveler interface {
	SetLevel(int32)
}

func (c *SetLevel) Handle(_ context.Context, req *command.Request) error {
	if len(req.Args()) < 2 {
		return errs.InvalidArgumentf("Usage: setlevel <target> <level>")
	}
	level, err := strconv.ParseInt(req.Arg(1), 10, 32)
	if err != nil {
		return errs.InvalidArgumentf("Invalid level %q.", req.Arg(1))
	}
	if level < 1 || level > MaxLevel {
		return errs.InvalidArgumentf("Level must be between 1 and %d, got %d.", MaxLevel, level)
	}

	target, err := findTarget(c.world, req.Actor, req.Arg(0))
	if err != nil {
		return err
	}
	l, ok := target.(leveler)
	if !ok {
		return errs.InvalidArgumentf("%s has no level to set.", target.Name())
	}
	l.SetLevel(int32(level))
	req.Replyf("Set %s level to %d.", target.Name(), level)
	return nil
}

// Reload handles "reload": rebuilds the ability catalog from its source.
type Reload struct {
	catalog Reloader
}

func NewReload(catalog Reloader) *Reload {
	return &Reload{catalog: catalog}
}

func (c *Reload) Info() command.Info {
	return command.Info{
		Name:          "reload",
		Category:      command.CategoryAdmin,
		Description:   "Reload abilities and effects.",
		Usage:         "reload",
		Privilege:     model.PrivilegeBuilder,
		UsableSitting: true,
	}
}

func (c *Reload) Handle(ctx context.Context, req *command.Request) error {
	if c.catalog == nil {
		return errs.InvalidStatef("Nothing to reload.")
	}
	if err := c.catalog.Reload(ctx); err != nil {
		return errs.Wrap(err, "Reload failed: "+errs.Message(err))
	}
	req.Reply("Catalog reloaded.")
	return nil
}

// Stats handles "stats [command]": shows dispatch counters.
type Stats struct{}

func (c *Stats) Info() command.Info {
	return command.Info{
		Name:           "stats",
		Category:       command.CategoryAdmin,
		Description:    "Show command execution statistics.",
		Usage:          "stats [command]",
		Privilege:      model.PrivilegeHelper,
		UsableFighting: true,
		UsableSitting:  true,
	}
}

func (c *Stats) Handle(_ context.Context, req *command.Request) error {
	if name := req.Arg(0); name != "" {
		st, ok := req.Dispatcher.Stats(name)
		if !ok {
			return errs.NotFoundf("No statistics for %q.", name)
		}
		req.Reply(formatStats(strings.ToLower(name), st))
		return nil
	}

	all := req.Dispatcher.AllStats()
	if len(all) == 0 {
		req.Reply("No commands executed yet.")
		return nil
	}
	var b strings.Builder
	for i, name := range slices.Sorted(maps.Keys(all)) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(formatStats(name, all[name]))
	}
	req.Reply(b.String())
	return nil
}

func formatStats(name string, st command.Stats) string {
	return fmt.Sprintf("%-12s total %d  ok %d  failed %d  avg %s",
		name, st.Total, st.Success, st.Failure, st.AvgDuration)
}
