package commands

import (
	"fmt"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/model"
)

// All returns the built-in command set.
func All(deps Deps) []Command {
	cmds := make([]Command, 0, 32)
	for _, d := range []model.Direction{model.North, model.East, model.South, model.West, model.Up, model.Down} {
		cmds = append(cmds, &Move{dir: d})
	}
	cmds = append(cmds,
		&Look{},
		&Say{},
		NewWho(deps.World),
		&Posture{name: "stand", to: model.PositionStanding},
		&Posture{name: "sit", to: model.PositionSitting},
		&Posture{name: "rest", to: model.PositionResting},
		&Posture{name: "sleep", to: model.PositionSleeping},
		&Posture{name: "wake", to: model.PositionStanding},
		&Release{},
		&Abilities{},
		NewCast(deps.Casts),
		&Alias{},
		&Unalias{},
		&Cooldowns{},
		&History{},
		&List{},

		// Staff
		NewHeal(deps.World),
		NewSlay(deps.World),
		NewRestore(deps.World),
		NewSetLevel(deps.World),
		NewReload(deps.Catalog),
		&Stats{},
	)
	return cmds
}

// RegisterAll registers the built-in command set into the registry.
func RegisterAll(r *command.Registry, deps Deps) error {
	for _, c := range All(deps) {
		info := c.Info()
		info.Handler = c.Handle
		if err := r.Register(info); err != nil {
			return fmt.Errorf("registering %q: %w", info.Name, err)
		}
	}
	return nil
}
