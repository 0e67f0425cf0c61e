package skill

import (
	"testing"

	"github.com/udisondev/mudcore/internal/model"
)

func testEffect(abilityID, effectID int32, ticks int32) *ActiveEffect {
	ae := newActiveEffect()
	ae.AbilityID = abilityID
	ae.EffectID = effectID
	ae.Name = "test"
	ae.RemainingTicks = ticks
	return ae
}

func TestEffectManager_AddStacksSameSource(t *testing.T) {
	m := NewEffectManager()

	first := testEffect(1, 1, 3)
	first.StackCap = 2
	first.Modifiers = []StatModifier{{Stat: "str", Value: 2}}
	got, fresh, _ := m.Add(first)
	if !fresh || got != first {
		t.Fatal("first add must register the new instance")
	}

	for range 3 {
		again := testEffect(1, 1, 5)
		again.Modifiers = []StatModifier{{Stat: "str", Value: 2}}
		got, fresh, _ = m.Add(again)
		if fresh || got != first {
			t.Fatal("re-add must refresh the existing instance")
		}
	}

	if m.Count() != 1 {
		t.Fatalf("count = %d, want 1", m.Count())
	}
	if first.Stacks != 2 {
		t.Errorf("stacks = %d, want 2 (capped)", first.Stacks)
	}
	if first.RemainingTicks != 5 {
		t.Errorf("remaining = %d, want refreshed 5", first.RemainingTicks)
	}
	if got := m.StatBonus("str"); got != 4 {
		t.Errorf("str bonus = %d, want 4", got)
	}
}

func TestEffectManager_EvictsOldest(t *testing.T) {
	m := NewEffectManager()
	var oldest *ActiveEffect
	for i := range maxActiveEffects {
		ae := testEffect(1, int32(i+1), 10)
		if i == 0 {
			oldest = ae
		}
		m.Add(ae)
	}

	_, fresh, evicted := m.Add(testEffect(2, 1, 10))
	if !fresh {
		t.Fatal("expected a new instance")
	}
	if evicted != oldest {
		t.Fatalf("evicted %v, want the oldest effect", evicted)
	}
	if m.Count() != maxActiveEffects {
		t.Errorf("count = %d, want %d", m.Count(), maxActiveEffects)
	}
}

func TestEffectManager_Cure(t *testing.T) {
	m := NewEffectManager()

	weak := testEffect(1, 1, 10)
	weak.Harmful, weak.Category, weak.Potency = true, "poison", 1
	strong := testEffect(1, 2, 10)
	strong.Harmful, strong.Category, strong.Potency = true, "poison", 9
	curse := testEffect(1, 3, 10)
	curse.Harmful, curse.Category = true, "curse"
	buff := testEffect(1, 4, 10)
	buff.Category = "poison"

	for _, ae := range []*ActiveEffect{weak, strong, curse, buff} {
		m.Add(ae)
	}

	removed := m.Cure("poison", 5, true, 0)
	if len(removed) != 1 || removed[0] != weak {
		t.Fatalf("cured %d effects, want only the weak poison", len(removed))
	}

	removed = m.Cure("", 10, true, 1)
	if len(removed) != 1 {
		t.Fatalf("limit 1 removed %d", len(removed))
	}
	if m.Count() != 2 {
		t.Errorf("count = %d, want 2", m.Count())
	}

	removed = m.Cure("", 10, false, 0)
	if len(removed) != 1 || removed[0] != buff {
		t.Fatal("dispel must only remove beneficial effects")
	}
}

func TestEffectManager_Tick(t *testing.T) {
	m := NewEffectManager()

	dot := testEffect(1, 1, 3)
	dot.Interval, dot.TicksUntilNext = 2, 2
	perm := testEffect(2, 1, UntilRemoved)
	m.Add(dot)
	m.Add(perm)

	events := m.Tick()
	if len(events) != 0 {
		t.Fatalf("tick 1: %d events, want 0", len(events))
	}

	events = m.Tick()
	if len(events) != 1 || !events[0].Pulse || events[0].Expired {
		t.Fatalf("tick 2: got %+v, want one pulse", events)
	}

	events = m.Tick()
	if len(events) != 1 || !events[0].Expired || events[0].Effect != dot {
		t.Fatalf("tick 3: got %+v, want dot expiry", events)
	}
	if m.Count() != 1 || !perm.IsPermanent() {
		t.Errorf("permanent effect must survive, count = %d", m.Count())
	}
}

func TestEffectManager_RemoveAbility(t *testing.T) {
	m := NewEffectManager()
	m.Add(testEffect(1, 1, 10))
	m.Add(testEffect(1, 2, 10))
	keep := testEffect(2, 1, 10)
	m.Add(keep)

	if removed := m.RemoveAbility(1); len(removed) != 2 {
		t.Fatalf("removed %d, want 2", len(removed))
	}
	if m.HasAbility(1) || !m.HasAbility(2) {
		t.Error("wrong effects removed")
	}
	if m.Remove(keep.ID) != keep || m.Count() != 0 {
		t.Error("Remove by id failed")
	}
	if m.Remove(keep.ID) != nil {
		t.Error("second Remove must return nil")
	}
}

func TestEffectManagers_AttachesStatBonus(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	base := a.Stats().Str

	m := f.effects.For(a)
	if f.effects.For(a) != m {
		t.Fatal("For must return the same manager")
	}
	ae := testEffect(1, 1, 10)
	ae.Modifiers = []StatModifier{{Stat: "str", Value: 3}}
	m.Add(ae)

	if got := a.Stats().Str; got != base+3 {
		t.Fatalf("str = %d, want %d", got, base+3)
	}

	f.effects.Forget(a.ID())
	if got := a.Stats().Str; got != base {
		t.Errorf("str after forget = %d, want %d", got, base)
	}
	if f.effects.Get(a.ID()) != nil {
		t.Error("manager must be dropped")
	}
}

func TestEndEffect_KeepsFlagGrantedElsewhere(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	m := f.effects.For(a)

	one := testEffect(1, 1, 10)
	one.Target, one.Flag = a, "hidden"
	two := testEffect(2, 1, 10)
	two.Target, two.Flag = a, "hidden"
	for _, ae := range []*ActiveEffect{one, two} {
		m.Add(ae)
		startEffect(ae)
	}

	f.exec.endEffect(m, m.Remove(one.ID), nil, false)
	if !a.HasFlag("hidden") {
		t.Fatal("flag still granted by another effect")
	}
	f.exec.endEffect(m, m.Remove(two.ID), nil, false)
	if a.HasFlag("hidden") {
		t.Fatal("flag must be cleared with the last effect")
	}
}

func TestEndEffect_RestoresForcedPosition(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	m := f.effects.For(a)

	sleeping := model.PositionSleeping
	ae := testEffect(1, 1, 10)
	ae.Target, ae.Position = a, &sleeping
	ae.WearOff = "You wake up."
	m.Add(ae)
	startEffect(ae)
	a.DrainMessages()

	f.exec.endEffect(m, m.Remove(ae.ID), nil, false)
	if a.Position() != model.PositionResting {
		t.Errorf("position = %s, want resting", a.Position())
	}
	msgs := a.DrainMessages()
	if len(msgs) != 1 || msgs[0] != "You wake up." {
		t.Errorf("messages = %q", msgs)
	}
}
