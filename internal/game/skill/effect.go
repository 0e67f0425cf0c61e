package skill

import (
	"sync/atomic"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/formula"
	"github.com/udisondev/mudcore/internal/model"
)

// UntilRemoved marks an active effect without expiry (toggles, auras).
const UntilRemoved int32 = -1

var activeEffectSeq atomic.Uint64

// ActiveEffect is a running effect instance on an actor.
// Numeric fields are resolved when the effect is applied and never
// re-evaluated afterwards.
type ActiveEffect struct {
	ID        uint64
	AbilityID int32
	EffectID  int32
	Name      string
	Kind      catalog.EffectKind

	Source model.Actor
	Target model.Actor

	// Amount is applied every Interval ticks (DoT/HoT); per stack.
	Amount   int64
	Percent  int64
	Resource model.Resource
	CanKill  bool

	Interval       int32
	TicksUntilNext int32
	// RemainingTicks counts down once per tick; UntilRemoved never expires.
	RemainingTicks int32

	Stacks   int32
	StackCap int32

	// Category and Potency are matched by cleanse/dispel.
	Category string
	Potency  int32
	Harmful  bool

	Flag      string
	Position  *model.Position
	Modifiers []StatModifier

	WearOff     string
	WearOffRoom string

	// Links run on every interval tick and when the effect ends.
	Periodic []catalog.AbilityEffect
	OnEnd    []catalog.AbilityEffect
	// Formula is the context captured at application, reused by periodic links.
	Formula    *formula.Context
	SkillLevel int32
}

func newActiveEffect() *ActiveEffect {
	return &ActiveEffect{ID: activeEffectSeq.Add(1), Stacks: 1, StackCap: 1}
}

// IsPermanent reports whether the effect lasts until explicitly removed.
func (ae *ActiveEffect) IsPermanent() bool {
	return ae.RemainingTicks == UntilRemoved
}

// sameSource reports whether two effects come from the same ability link.
func (ae *ActiveEffect) sameSource(other *ActiveEffect) bool {
	return ae.AbilityID == other.AbilityID && ae.EffectID == other.EffectID
}
