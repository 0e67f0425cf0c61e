package skill

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/udisondev/mudcore/internal/model"
)

func TestTick_DamageOverTime(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	b := f.player(t, "p2", "Bob", 10)
	s := NewTickScheduler(f.effects, f.exec, time.Hour, nil)

	if _, err := f.abilities.Execute(context.Background(), Request{Actor: a, AbilityID: abilityPoison, Target: b}); err != nil {
		t.Fatalf("poison: %v", err)
	}
	b.DrainMessages()

	for range 3 {
		s.Tick()
	}

	if got := b.Resource(model.ResourceHP); got != 91 {
		t.Errorf("bob hp = %d, want 91", got)
	}
	if f.effects.For(b).Count() != 0 {
		t.Error("poison must expire after its duration")
	}
	msgs := b.DrainMessages()
	if !slices.Contains(msgs, "You take 3 damage from poison.") {
		t.Errorf("missing pulse message in %q", msgs)
	}
	if !slices.Contains(msgs, "You feel better.") {
		t.Errorf("missing wear-off message in %q", msgs)
	}
}

func TestTick_OnEndLinks(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	s := NewTickScheduler(f.effects, f.exec, time.Hour, nil)
	base := a.Stats().Str

	if _, err := f.abilities.Execute(context.Background(), Request{Actor: a, AbilityID: abilityStrength}); err != nil {
		t.Fatalf("giant strength: %v", err)
	}
	if got := a.Stats().Str; got != base+2 {
		t.Fatalf("str = %d, want %d", got, base+2)
	}
	a.SetResource(model.ResourceHP, 50)

	s.Tick()
	if a.Stats().Str != base+2 {
		t.Fatal("modifier expired early")
	}
	s.Tick()

	if got := a.Stats().Str; got != base {
		t.Errorf("str after expiry = %d, want %d", got, base)
	}
	if got := a.Resource(model.ResourceHP); got != 70 {
		t.Errorf("hp = %d, want 70 after the on-end heal", got)
	}
	if !slices.Contains(a.DrainMessages(), "You feel weaker.") {
		t.Error("missing wear-off message")
	}
}

func TestTick_RoutesThroughRunner(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	b := f.player(t, "p2", "Bob", 10)

	var calls atomic.Int32
	s := NewTickScheduler(f.effects, f.exec, time.Hour, func(actor model.Actor, fn func()) {
		if actor.ID() != b.ID() {
			t.Errorf("tick routed to %s, want bob", actor.ID())
		}
		calls.Add(1)
		go fn()
	})

	if _, err := f.abilities.Execute(context.Background(), Request{Actor: a, AbilityID: abilityPoison, Target: b}); err != nil {
		t.Fatalf("poison: %v", err)
	}
	s.Tick()

	if calls.Load() != 1 {
		t.Fatalf("runner called %d times, want 1", calls.Load())
	}
	if b.Resource(model.ResourceHP) != 97 {
		t.Errorf("bob hp = %d, want 97", b.Resource(model.ResourceHP))
	}
}

func TestTickScheduler_StartStop(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	b := f.player(t, "p2", "Bob", 10)
	s := NewTickScheduler(f.effects, f.exec, 5*time.Millisecond, nil)

	if _, err := f.abilities.Execute(context.Background(), Request{Actor: a, AbilityID: abilityPoison, Target: b}); err != nil {
		t.Fatalf("poison: %v", err)
	}

	s.Start()
	deadline := time.Now().Add(2 * time.Second)
	for f.effects.For(b).Count() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if f.effects.For(b).Count() != 0 {
		t.Fatal("scheduler did not expire the poison")
	}
	if b.Resource(model.ResourceHP) != 91 {
		t.Errorf("bob hp = %d, want 91", b.Resource(model.ResourceHP))
	}
}
