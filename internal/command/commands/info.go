package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/model"
)

// Cooldowns handles "cooldowns": shows running command and ability cooldowns.
type Cooldowns struct{}

func (c *Cooldowns) Info() command.Info {
	return command.Info{
		Name:           "cooldowns",
		Aliases:        []string{"cd"},
		Category:       command.CategoryInformation,
		Description:    "Show your running cooldowns.",
		Usage:          "cooldowns",
		Privilege:      model.PrivilegeGuest,
		UsableFighting: true,
		UsableSitting:  true,
		UsableSleeping: true,
	}
}

func (c *Cooldowns) Handle(ctx context.Context, req *command.Request) error {
	active, err := req.Dispatcher.ActiveCooldowns(ctx, req.Actor.ID())
	if err != nil {
		return fmt.Errorf("listing cooldowns: %w", err)
	}
	if len(active) == 0 {
		req.Reply("You have no active cooldowns.")
		return nil
	}
	var b strings.Builder
	b.WriteString("Cooldowns:")
	for _, key := range slices.Sorted(maps.Keys(active)) {
		fmt.Fprintf(&b, "\n%-24s %s", key, active[key].Round(100*time.Millisecond))
	}
	req.Reply(b.String())
	return nil
}

// History handles "history": shows the actor's recent commands.
type History struct{}

func (c *History) Info() command.Info {
	return command.Info{
		Name:           "history",
		Category:       command.CategoryInformation,
		Description:    "Show your recent commands.",
		Usage:          "history",
		Privilege:      model.PrivilegeGuest,
		UsableFighting: true,
		UsableSitting:  true,
		UsableSleeping: true,
	}
}

func (c *History) Handle(_ context.Context, req *command.Request) error {
	entries := req.Dispatcher.History(req.Actor.ID())
	if len(entries) == 0 {
		req.Reply("No commands yet.")
		return nil
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%2d  %-30s %s", i+1, e.Line, e.Status)
	}
	req.Reply(b.String())
	return nil
}

// List handles "commands [category]": lists commands the actor may use now.
type List struct{}

func (c *List) Info() command.Info {
	return command.Info{
		Name:           "commands",
		Category:       command.CategoryInformation,
		Description:    "List the commands you can use.",
		Usage:          "commands [category]",
		Privilege:      model.PrivilegeGuest,
		UsableFighting: true,
		UsableSitting:  true,
		UsableSleeping: true,
	}
}

func (c *List) Handle(_ context.Context, req *command.Request) error {
	filter := strings.ToLower(req.Arg(0))

	byCategory := make(map[string][]string)
	for _, info := range req.Dispatcher.Available(req.Actor) {
		if filter != "" && info.Category != filter {
			continue
		}
		byCategory[info.Category] = append(byCategory[info.Category], info.Name)
	}
	if len(byCategory) == 0 {
		req.Reply("No commands available.")
		return nil
	}

	var b strings.Builder
	for i, cat := range slices.Sorted(maps.Keys(byCategory)) {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", cat, strings.Join(byCategory[cat], " "))
	}
	req.Reply(b.String())
	return nil
}
