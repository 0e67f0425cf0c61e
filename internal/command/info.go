// Package command resolves input lines into registered commands, checks
// whether the actor may run them and executes them on the actor's mailbox.
package command

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/game/skill"
	"github.com/udisondev/mudcore/internal/model"
	"github.com/udisondev/mudcore/internal/parser"
)

// Command categories. The position gate keys off some of them.
const (
	CategoryMovement      = "movement"
	CategoryInformation   = "information"
	CategoryCommunication = "communication"
	CategoryPosture       = "posture"
	CategoryCombat        = "combat"
	CategoryItem          = "item"
	CategoryAbility       = "ability"
	CategoryUtility       = "utility"
	CategoryAdmin         = "admin"
)

// Handler executes a command. A returned error marks the execution failed;
// its message is shown to the actor.
type Handler func(ctx context.Context, req *Request) error

// Info describes a registered command. It is copied out of the registry
// on every lookup and never mutated after registration.
type Info struct {
	Name        string
	Aliases     []string
	Category    string
	Description string
	Usage       string
	Handler     Handler

	Privilege   model.Privilege
	Permissions []string
	// MinLevel and MaxLevel bound the actor level; 0 means unbounded.
	MinLevel int32
	MaxLevel int32
	Cooldown time.Duration

	UsableFighting bool
	UsableSitting  bool
	UsableSleeping bool
	MustStand      bool
}

func (i Info) clone() Info {
	i.Aliases = slices.Clone(i.Aliases)
	i.Permissions = slices.Clone(i.Permissions)
	return i
}

func (i Info) normalized() Info {
	i.Name = strings.ToLower(strings.TrimSpace(i.Name))
	aliases := make([]string, 0, len(i.Aliases))
	for _, a := range i.Aliases {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			aliases = append(aliases, a)
		}
	}
	i.Aliases = aliases
	i.Permissions = slices.Clone(i.Permissions)
	if i.Category == "" {
		i.Category = CategoryUtility
	}
	return i
}

// Request is what a handler receives.
type Request struct {
	// ID identifies the dispatch in logs.
	ID         string
	Actor      model.Actor
	Info       Info
	Command    *parser.ParsedCommand
	Dispatcher *Dispatcher

	// Ability is set when the command is an ability invoked by name.
	Ability *catalog.Ability

	abilityResult *skill.AbilityResult
}

// SetAbilityResult attaches the outcome of an ability run by the handler
// to the dispatch result.
func (r *Request) SetAbilityResult(res *skill.AbilityResult) {
	r.abilityResult = res
}

// Args returns the words after the command name.
func (r *Request) Args() []string {
	return r.Command.Args
}

// Arg returns the i-th argument or "".
func (r *Request) Arg(i int) string {
	if i < 0 || i >= len(r.Command.Args) {
		return ""
	}
	return r.Command.Args[i]
}

// Argument returns everything after the command name, unsplit.
func (r *Request) Argument() string {
	return r.Command.Argument
}

// Reply sends msg to the actor as is.
func (r *Request) Reply(msg string) {
	r.Actor.Send(msg)
}

// Replyf sends a formatted message to the actor.
func (r *Request) Replyf(format string, args ...any) {
	r.Actor.Send(fmt.Sprintf(format, args...))
}
