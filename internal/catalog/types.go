// Package catalog holds the data-driven definitions of abilities and effects.
//
// A Catalog is loaded in bulk from a Source into an immutable Snapshot.
// Reload builds a new snapshot and swaps it atomically, so lookups never
// block and never observe a half-loaded state.
package catalog

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/udisondev/mudcore/internal/model"
)

// AbilityKind distinguishes how an ability is invoked.
type AbilityKind uint8

const (
	KindSpell AbilityKind = iota
	KindSkill
	KindChant
	KindSong
)

var abilityKindNames = [...]string{"spell", "skill", "chant", "song"}

func (k AbilityKind) String() string {
	if int(k) < len(abilityKindNames) {
		return abilityKindNames[k]
	}
	return "unknown"
}

// Invocable reports whether the ability can be used directly as a command.
// Spells go through the casting flow instead.
func (k AbilityKind) Invocable() bool {
	return k != KindSpell
}

func ParseAbilityKind(s string) (AbilityKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range abilityKindNames {
		if name == s {
			return AbilityKind(i), true
		}
	}
	return 0, false
}

// TargetFlags is a bit set describing acceptable targets.
type TargetFlags uint16

const (
	TargetIgnore   TargetFlags = 1 << iota // no target
	TargetSelf                             // the actor itself
	TargetCharRoom                         // any character in the room
	TargetFighting                         // current opponent when no target given
	TargetNotSelf                          // actor may not target itself
)

var targetFlagNames = map[string]TargetFlags{
	"ignore":    TargetIgnore,
	"self":      TargetSelf,
	"char_room": TargetCharRoom,
	"fighting":  TargetFighting,
	"not_self":  TargetNotSelf,
}

func (f TargetFlags) Has(flag TargetFlags) bool { return f&flag != 0 }

// NeedsTarget reports whether a target other than the actor must be resolved.
func (f TargetFlags) NeedsTarget() bool {
	return f.Has(TargetCharRoom) && !f.Has(TargetIgnore)
}

// Names returns the set flag names sorted alphabetically.
func (f TargetFlags) Names() []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(targetFlagNames)) {
		if f.Has(targetFlagNames[name]) {
			out = append(out, name)
		}
	}
	return out
}

// ParseTargetFlags parses a list of flag names.
func ParseTargetFlags(names []string) (TargetFlags, bool) {
	var f TargetFlags
	for _, n := range names {
		flag, ok := targetFlagNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, false
		}
		f |= flag
	}
	return f, true
}

// Ability is a named, data-defined action.
type Ability struct {
	ID          int32
	Name        string
	PlainName   string
	Kind        AbilityKind
	Toggle      bool
	Violent     bool
	TargetFlags TargetFlags
}

// Key returns the case-normalized lookup key.
func (a *Ability) Key() string {
	if a.PlainName != "" {
		return strings.ToLower(a.PlainName)
	}
	return strings.ToLower(a.Name)
}

// Messages are ability-specific override texts per audience.
// $n is the actor, $N the target.
type Messages struct {
	AbilityID   int32
	ActorHit    string
	TargetHit   string
	RoomHit     string
	ActorMiss   string
	TargetMiss  string
	RoomMiss    string
	WearOff     string
	WearOffRoom string
}

// Restriction is the prerequisite table of an ability.
type Restriction struct {
	AbilityID   int32
	MinPosition model.Position
	MinLevel    int32
	ManaCost    int32
	MoveCost    int32
	Cooldown    time.Duration
	CastTime    time.Duration
}

// DamageComponent contributes to the base damage of an ability.
type DamageComponent struct {
	AbilityID int32
	Element   string
	Formula   string
}

// EffectKind selects the effect handler.
type EffectKind uint8

const (
	EffectDamage EffectKind = iota
	EffectHeal
	EffectModify
	EffectStatus
	EffectCleanse
	EffectDispel
	EffectMove
	EffectInterrupt
)

var effectKindNames = [...]string{"damage", "heal", "modify", "status", "cleanse", "dispel", "move", "interrupt"}

func (k EffectKind) String() string {
	if int(k) < len(effectKindNames) {
		return effectKindNames[k]
	}
	return "unknown"
}

func ParseEffectKind(s string) (EffectKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range effectKindNames {
		if name == s {
			return EffectKind(i), true
		}
	}
	return 0, false
}

// EffectDefinition is one atomic typed outcome with default parameters.
// Parameter values are formula strings resolved at execution time.
type EffectDefinition struct {
	ID     int32
	Name   string
	Kind   EffectKind
	Params map[string]string
}

// Phase is the trigger phase of an ability→effect link.
type Phase uint8

const (
	PhaseOnCast Phase = iota
	PhaseOnHit
	PhaseOnMiss
	PhasePeriodic
	PhaseOnEnd
	PhaseOnTrigger
)

var phaseNames = [...]string{"on_cast", "on_hit", "on_miss", "periodic", "on_end", "on_trigger"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

func ParsePhase(s string) (Phase, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), true
		}
	}
	return 0, false
}

// AbilityEffect links an ability to an effect.
type AbilityEffect struct {
	AbilityID     int32
	EffectID      int32
	Order         int32
	Phase         Phase
	ChancePercent int32
	Condition     string
	Overrides     map[string]string
}

// Params merges link overrides over the definition defaults.
func (l AbilityEffect) Params(def *EffectDefinition) map[string]string {
	out := make(map[string]string, len(def.Params)+len(l.Overrides))
	for k, v := range def.Params {
		out[k] = v
	}
	for k, v := range l.Overrides {
		out[k] = v
	}
	return out
}

// Records is the raw bulk read returned by a Source.
type Records struct {
	Effects          []EffectDefinition
	Abilities        []Ability
	Links            []AbilityEffect
	Messages         []Messages
	Restrictions     []Restriction
	DamageComponents []DamageComponent
}
