package skill

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/formula"
	"github.com/udisondev/mudcore/internal/model"
)

// maxActiveEffects bounds the effects one actor can carry.
const maxActiveEffects = 32

// EffectManager tracks the active effects of one actor.
// Implements model.StatBonusProvider.
//
// Methods never call back into actors while holding the lock: state changes
// on the actor (flags, position) are applied by the caller with the
// effects returned from Add/Remove/Tick.
type EffectManager struct {
	mu        sync.RWMutex
	effects   []*ActiveEffect
	modifiers []StatModifier
}

func NewEffectManager() *EffectManager {
	return &EffectManager{
		effects:   make([]*ActiveEffect, 0, 8),
		modifiers: make([]StatModifier, 0, 8),
	}
}

// Add registers an effect. Reapplying the same ability link refreshes the
// existing instance and adds a stack up to StackCap; in that case the
// existing instance is returned with fresh=false.
// When the limit is reached the oldest effect is evicted and returned.
func (m *EffectManager) Add(ae *ActiveEffect) (got *ActiveEffect, fresh bool, evicted *ActiveEffect) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.effects {
		if !existing.sameSource(ae) {
			continue
		}
		if existing.Stacks < existing.StackCap {
			existing.Stacks++
		}
		existing.RemainingTicks = ae.RemainingTicks
		existing.Amount = ae.Amount
		m.rebuildModifiers()
		return existing, false, nil
	}

	if len(m.effects) >= maxActiveEffects {
		evicted = m.effects[0]
		m.effects = m.effects[1:]
		slog.Debug("effect limit reached, removed oldest",
			"removed", evicted.Name,
			"added", ae.Name)
	}

	m.effects = append(m.effects, ae)
	m.rebuildModifiers()
	return ae, true, evicted
}

// HasAbility reports whether any effect from the ability is active.
func (m *EffectManager) HasAbility(abilityID int32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.ContainsFunc(m.effects, func(ae *ActiveEffect) bool { return ae.AbilityID == abilityID })
}

// HasFlag reports whether an active effect grants flag.
func (m *EffectManager) HasFlag(flag string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.ContainsFunc(m.effects, func(ae *ActiveEffect) bool { return ae.Flag == flag })
}

// RemoveAbility removes every effect of an ability and returns them.
func (m *EffectManager) RemoveAbility(abilityID int32) []*ActiveEffect {
	return m.removeWhere(func(ae *ActiveEffect) bool { return ae.AbilityID == abilityID }, 0)
}

// Remove removes one effect instance by id.
func (m *EffectManager) Remove(id uint64) *ActiveEffect {
	removed := m.removeWhere(func(ae *ActiveEffect) bool { return ae.ID == id }, 1)
	if len(removed) == 0 {
		return nil
	}
	return removed[0]
}

// Cure removes up to limit effects (0 = no limit) of the given harmfulness
// whose category matches ("" matches all) and whose potency does not
// exceed potency.
func (m *EffectManager) Cure(category string, potency int32, harmful bool, limit int) []*ActiveEffect {
	return m.removeWhere(func(ae *ActiveEffect) bool {
		return ae.Harmful == harmful &&
			(category == "" || ae.Category == category) &&
			ae.Potency <= potency
	}, limit)
}

func (m *EffectManager) removeWhere(match func(*ActiveEffect) bool, limit int) []*ActiveEffect {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []*ActiveEffect
	n := 0
	for _, ae := range m.effects {
		if (limit <= 0 || len(removed) < limit) && match(ae) {
			removed = append(removed, ae)
		} else {
			m.effects[n] = ae
			n++
		}
	}
	clear(m.effects[n:])
	m.effects = m.effects[:n]
	if len(removed) > 0 {
		m.rebuildModifiers()
	}
	return removed
}

// StatBonus returns the summed modifier of all active effects for stat.
func (m *EffectManager) StatBonus(stat string) int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int32
	for _, mod := range m.modifiers {
		if mod.Stat == stat {
			total += mod.Value
		}
	}
	return total
}

// TickEvent is something the scheduler must apply after a tick.
type TickEvent struct {
	Effect *ActiveEffect
	// Pulse is set when the effect's interval elapsed.
	Pulse  bool
	Stacks int32
	// Expired is set when the effect ran out and was removed.
	Expired bool
}

// Tick advances every effect by one tick. Expired effects are removed.
func (m *EffectManager) Tick() []TickEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []TickEvent
	n := 0
	for _, ae := range m.effects {
		ev := TickEvent{Effect: ae, Stacks: ae.Stacks}
		if ae.Interval > 0 {
			ae.TicksUntilNext--
			if ae.TicksUntilNext <= 0 {
				ev.Pulse = true
				ae.TicksUntilNext = ae.Interval
			}
		}
		if ae.RemainingTicks > 0 {
			ae.RemainingTicks--
			if ae.RemainingTicks == 0 {
				ev.Expired = true
			}
		}

		if ev.Pulse || ev.Expired {
			events = append(events, ev)
		}
		if !ev.Expired {
			m.effects[n] = ae
			n++
		}
	}
	if n != len(m.effects) {
		clear(m.effects[n:])
		m.effects = m.effects[:n]
		m.rebuildModifiers()
	}
	return events
}

// Active returns a copy of the active effects.
func (m *EffectManager) Active() []*ActiveEffect {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.effects)
}

func (m *EffectManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.effects)
}

// rebuildModifiers must be called with mu held.
func (m *EffectManager) rebuildModifiers() {
	m.modifiers = m.modifiers[:0]
	for _, ae := range m.effects {
		for _, mod := range ae.Modifiers {
			m.modifiers = append(m.modifiers, StatModifier{Stat: mod.Stat, Value: mod.Value * ae.Stacks})
		}
	}
}

// bonusReceiver is implemented by *model.Character and types embedding it.
type bonusReceiver interface {
	SetStatBonusProvider(model.StatBonusProvider)
}

// EffectManagers holds one EffectManager per actor id.
type EffectManagers struct {
	mu       sync.RWMutex
	managers map[string]*EffectManager
	actors   map[string]model.Actor
}

func NewEffectManagers() *EffectManagers {
	return &EffectManagers{
		managers: make(map[string]*EffectManager),
		actors:   make(map[string]model.Actor),
	}
}

// For returns the actor's manager, creating it on first use and
// attaching it as the actor's stat bonus provider.
func (r *EffectManagers) For(a model.Actor) *EffectManager {
	r.mu.RLock()
	m, ok := r.managers[a.ID()]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	if m, ok = r.managers[a.ID()]; !ok {
		m = NewEffectManager()
		r.managers[a.ID()] = m
		r.actors[a.ID()] = a
	}
	r.mu.Unlock()

	if !ok {
		if br, isReceiver := a.(bonusReceiver); isReceiver {
			br.SetStatBonusProvider(m)
		}
	}
	return m
}

// Get returns the actor's manager or nil.
func (r *EffectManagers) Get(actorID string) *EffectManager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.managers[actorID]
}

// Forget drops an actor's manager, e.g. when it leaves the game.
func (r *EffectManagers) Forget(actorID string) {
	r.mu.Lock()
	a := r.actors[actorID]
	delete(r.managers, actorID)
	delete(r.actors, actorID)
	r.mu.Unlock()

	if br, ok := a.(bonusReceiver); ok {
		br.SetStatBonusProvider(nil)
	}
}

type managedActor struct {
	actor   model.Actor
	manager *EffectManager
}

func (r *EffectManagers) snapshot() []managedActor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]managedActor, 0, len(r.managers))
	for id, m := range r.managers {
		out = append(out, managedActor{actor: r.actors[id], manager: m})
	}
	return out
}

// newActive builds an active effect from common params:
// duration, interval, stack_cap, category, potency, harmful, wear_off, wear_off_room.
func (ex *Executor) newActive(def *catalog.EffectDefinition, p Params, ectx *EffectContext, target model.Actor) *ActiveEffect {
	ae := newActiveEffect()
	ae.AbilityID = ectx.abilityID()
	ae.EffectID = def.ID
	ae.Name = def.Name
	ae.Kind = def.Kind
	ae.Source = ectx.Actor
	ae.Target = target

	dur := p.Int("duration", 0)
	if dur < 0 {
		ae.RemainingTicks = UntilRemoved
	} else {
		ae.RemainingTicks = int32(min(dur, 1<<30))
	}
	ae.Interval = int32(max(min(p.Int("interval", 0), 1<<20), 0))
	ae.TicksUntilNext = ae.Interval
	ae.StackCap = int32(max(min(p.Int("stack_cap", 1), 1000), 1))
	ae.Category = p.Text("category")
	ae.Potency = int32(max(min(p.Int("potency", 0), 1<<20), 0))
	ae.Harmful = p.Bool("harmful", ectx.Ability != nil && ectx.Ability.Violent)
	ae.WearOff = p.Text("wear_off")
	ae.WearOffRoom = p.Text("wear_off_room")
	return ae
}

// startEffect applies the actor-side state of a freshly registered effect.
func startEffect(ae *ActiveEffect) {
	if ae.Flag != "" {
		ae.Target.SetFlag(ae.Flag, true)
	}
	if ae.Position != nil {
		ae.Target.SetPosition(*ae.Position)
	}
}

// endEffect reverts an effect removed from m, sends its wear-off
// messages and, when runOnEnd is set, executes its OnEnd links.
func (ex *Executor) endEffect(m *EffectManager, ae *ActiveEffect, eval *formula.Evaluator, runOnEnd bool) {
	if ae.Flag != "" && !m.HasFlag(ae.Flag) {
		ae.Target.SetFlag(ae.Flag, false)
	}
	if ae.Position != nil && ae.Target.Position() == *ae.Position && !ae.Target.IsDead() {
		ae.Target.SetPosition(model.PositionResting)
	}

	ae.Target.Send(expandMessage(ae.WearOff, ae.Source, ae.Target, 0))
	if room := ae.Target.Room(); room != nil {
		room.Broadcast(expandMessage(ae.WearOffRoom, ae.Source, ae.Target, 0), ae.Target)
	}

	if runOnEnd && len(ae.OnEnd) > 0 && eval != nil {
		ectx := ex.effectContextFor(ae, eval)
		batch := ex.ExecuteAbilityEffects(ae.OnEnd, ectx, catalog.PhaseOnEnd)
		ex.register(batch, ae.Periodic, ae.OnEnd)
		deliverBatch(batch, ectx)
		if err := batch.Err(); err != nil {
			slog.Warn("on-end effects failed", "effect", ae.Name, "error", err)
		}
	}
}

// effectContextFor rebuilds an execution context from an active effect.
func (ex *Executor) effectContextFor(ae *ActiveEffect, eval *formula.Evaluator) *EffectContext {
	fctx := ae.Formula
	if fctx == nil {
		fctx = &formula.Context{}
	}
	return &EffectContext{
		Actor:      ae.Source,
		Target:     ae.Target,
		SkillLevel: ae.SkillLevel,
		Formula:    fctx,
		Eval:       eval,
	}
}

// register attaches follow-up links to new active effects and adds them to
// their targets' managers.
func (ex *Executor) register(batch *BatchResult, periodic, onEnd []catalog.AbilityEffect) []*ActiveEffect {
	if ex.effects == nil {
		return nil
	}
	var added []*ActiveEffect
	for i := range batch.Results {
		ae := batch.Results[i].Active
		if ae == nil || ae.Target == nil {
			continue
		}
		ae.Periodic = periodic
		ae.OnEnd = onEnd

		m := ex.effects.For(ae.Target)
		got, fresh, evicted := m.Add(ae)
		if evicted != nil {
			ex.endEffect(m, evicted, nil, false)
		}
		if fresh {
			startEffect(got)
		}
		batch.Results[i].Active = got
		added = append(added, got)
	}
	return added
}

// deliverBatch sends per-effect messages of a batch that ran outside an
// ability use (ticks, on-end links).
func deliverBatch(batch *BatchResult, ectx *EffectContext) {
	for _, r := range batch.Results {
		if ectx.Actor != nil {
			ectx.Actor.Send(r.ToActor)
		}
		if ectx.Target != nil && ectx.Target != ectx.Actor {
			ectx.Target.Send(r.ToTarget)
		}
		if room := ectx.Room(); room != nil {
			room.Broadcast(r.ToRoom, ectx.Actor, ectx.Target)
		}
	}
}
