// Package commands provides the built-in command set.
package commands

import (
	"context"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/model"
)

// World provides player lookup for commands that reach beyond the room.
// Interface to keep the command set independent of session handling.
type World interface {
	// FindPlayer finds an online player by name (case-insensitive).
	FindPlayer(name string) (*model.Player, bool)
	// Players returns online players sorted by name.
	Players() []*model.Player
}

// Caster is the two-phase casting contract used by "cast".
type Caster interface {
	BeginCasting(ctx context.Context, caster model.Actor, abilityID int32, target model.Actor, circle int32) error
	IsCasting(actorID string) bool
}

// Reloader reloads the ability catalog.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Command is a built-in command.
type Command interface {
	Info() command.Info
	Handle(ctx context.Context, req *command.Request) error
}

// Deps are the collaborators of the built-in commands.
type Deps struct {
	World   World
	Casts   Caster
	Catalog Reloader
}
