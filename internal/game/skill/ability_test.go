package skill

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/formula"
	"github.com/udisondev/mudcore/internal/model"
)

func reasonOf(err error) string {
	var e *errs.Error
	if !errors.As(err, &e) {
		return ""
	}
	reason, _ := e.Meta["reason"].(string)
	return reason
}

func TestAbility_HideToggle(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	ctx := context.Background()

	res, err := f.abilities.Execute(ctx, Request{Actor: a, AbilityName: "hide"})
	if err != nil {
		t.Fatalf("hide: %v", err)
	}
	if !res.Success || res.Toggled {
		t.Fatalf("first use must apply: %+v", res)
	}
	if res.TotalDamage != 0 || res.TotalHealing != 0 {
		t.Errorf("hide dealt damage %d / healing %d", res.TotalDamage, res.TotalHealing)
	}
	if !a.HasFlag("hidden") {
		t.Fatal("actor must be hidden")
	}
	if res.ToActor != "You blend into the shadows." {
		t.Errorf("message = %q", res.ToActor)
	}

	res, err = f.abilities.Execute(ctx, Request{Actor: a, AbilityName: "HIDE"})
	if err != nil {
		t.Fatalf("hide off: %v", err)
	}
	if !res.Toggled || a.HasFlag("hidden") {
		t.Fatal("second use must toggle hide off")
	}
	if f.effects.For(a).HasAbility(abilityHide) {
		t.Error("hide effect still active")
	}

	msgs := a.DrainMessages()
	if n := countMessage(msgs, "You step out of the shadows."); n != 1 {
		t.Errorf("wear-off delivered %d times, messages %q", n, msgs)
	}
}

func countMessage(msgs []string, want string) int {
	n := 0
	for _, m := range msgs {
		if m == want {
			n++
		}
	}
	return n
}

func TestAbility_Bash(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	b := f.player(t, "p2", "Bob", 10)
	ctx := context.Background()

	res, err := f.abilities.Execute(ctx, Request{Actor: a, AbilityID: abilityBash, Target: b})
	if err != nil {
		t.Fatalf("bash: %v", err)
	}
	if !res.Success || !res.Hit {
		t.Fatalf("bash must hit: %+v", res)
	}
	if res.TotalDamage != 10 || b.Resource(model.ResourceHP) != 90 {
		t.Fatalf("damage %d, bob hp %d", res.TotalDamage, b.Resource(model.ResourceHP))
	}
	if !b.HasFlag("stunned") {
		t.Error("bob must be stunned")
	}
	if a.Resource(model.ResourceMoves) != 50 {
		t.Errorf("moves = %d, want 50", a.Resource(model.ResourceMoves))
	}
	if res.Cooldown != 3*time.Second {
		t.Errorf("cooldown = %s", res.Cooldown)
	}
	if a.Fighting() != b || b.Fighting() != a {
		t.Error("bash must start a fight")
	}

	if res.ToActor != "You bash Bob!" {
		t.Errorf("actor message = %q", res.ToActor)
	}
	if !slices.Contains(b.DrainMessages(), "Alice bashes you for 10.") {
		t.Error("bob did not get the per-effect message")
	}

	// Damage runs before the stun: links execute in their configured order.
	if res.Effects[0].EffectID != 2 || res.Effects[1].EffectID != 3 {
		t.Errorf("effect order %d, %d", res.Effects[0].EffectID, res.Effects[1].EffectID)
	}

	_, err = f.abilities.Execute(ctx, Request{Actor: a, AbilityID: abilityBash})
	if reasonOf(err) != "cooldown" {
		t.Fatalf("expected cooldown rejection, got %v", err)
	}

	f.clock.Advance(3 * time.Second)
	res, err = f.abilities.Execute(ctx, Request{Actor: a, AbilityID: abilityBash})
	if err != nil {
		t.Fatalf("bash after cooldown: %v", err)
	}
	if res.Target != b {
		t.Error("bash without a target must fall back to the opponent")
	}
}

func TestAbility_Miss(t *testing.T) {
	miss := HitResolverFunc(func(model.Actor, model.Actor, *catalog.Ability, int32, *formula.Evaluator) bool { return false })
	f := newFixture(t, miss)
	a := f.player(t, "p1", "Alice", 10)
	b := f.player(t, "p2", "Bob", 10)

	res, err := f.abilities.Execute(context.Background(), Request{Actor: a, AbilityID: abilityBash, Target: b})
	if err != nil {
		t.Fatalf("bash: %v", err)
	}
	if res.Hit || len(res.Effects) != 0 {
		t.Fatalf("miss must not apply on-hit effects: %+v", res)
	}
	if res.ToActor != "You miss Bob." {
		t.Errorf("message = %q", res.ToActor)
	}
	if b.Resource(model.ResourceHP) != 100 {
		t.Error("bob took damage on a miss")
	}
}

func TestAbility_Prerequisites(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	b := f.player(t, "p2", "Bob", 10)
	ctx := context.Background()

	tests := []struct {
		name   string
		setup  func()
		req    Request
		reason string
	}{
		{"self target", nil, Request{Actor: a, AbilityID: abilityBash, Target: a}, "target"},
		{"no target", nil, Request{Actor: a, AbilityID: abilityBash}, "target"},
		{"position", func() { a.SetPosition(model.PositionSitting) }, Request{Actor: a, AbilityID: abilityBash, Target: b}, "position"},
		{"moves", func() { a.SetResource(model.ResourceMoves, 5) }, Request{Actor: a, AbilityID: abilityBash, Target: b}, "moves"},
		{"mana", func() { a.SetResource(model.ResourceMana, 10) }, Request{Actor: a, AbilityID: abilityFireball, Target: b}, "mana"},
		{"dead target", func() { b.AdjustResource(model.ResourceHP, -1000) }, Request{Actor: a, AbilityID: abilityBash, Target: b}, "target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a.Restore()
			b.Restore()
			a.SetPosition(model.PositionStanding)
			if tt.setup != nil {
				tt.setup()
			}
			_, err := f.abilities.Execute(ctx, tt.req)
			if !errs.IsInvalidState(err) {
				t.Fatalf("expected invalid state, got %v", err)
			}
			if got := reasonOf(err); got != tt.reason {
				t.Errorf("reason = %q, want %q", got, tt.reason)
			}
			left, _ := f.cooldowns.Remaining(ctx, a.ID(), "ability:bash")
			if left != 0 {
				t.Error("a rejected use must not start the cooldown")
			}
		})
	}
}

func TestAbility_StaffIgnoresCooldown(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	b := f.player(t, "p2", "Bob", 10)
	a.SetPrivilege(model.PrivilegeOverlord)
	ctx := context.Background()

	for i := range 2 {
		if _, err := f.abilities.Execute(ctx, Request{Actor: a, AbilityID: abilityBash, Target: b}); err != nil {
			t.Fatalf("bash %d: %v", i+1, err)
		}
	}
}

func TestAbility_DamageComponents(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	b := f.player(t, "p2", "Bob", 10)

	res, err := f.abilities.Execute(context.Background(), Request{Actor: a, AbilityID: abilityFireball, Target: b})
	if err != nil {
		t.Fatalf("fireball: %v", err)
	}
	if res.TotalDamage != 12 || b.Resource(model.ResourceHP) != 88 {
		t.Fatalf("damage %d, bob hp %d", res.TotalDamage, b.Resource(model.ResourceHP))
	}
	if a.Resource(model.ResourceMana) != 35 {
		t.Errorf("mana = %d, want 35", a.Resource(model.ResourceMana))
	}
	if res.ToActor != "You use Fireball." {
		t.Errorf("default message = %q", res.ToActor)
	}
}

func TestAbility_CurePoison(t *testing.T) {
	f := newFixture(t, nil)
	a := f.player(t, "p1", "Alice", 10)
	b := f.player(t, "p2", "Bob", 10)
	ctx := context.Background()

	res, err := f.abilities.Execute(ctx, Request{Actor: a, AbilityID: abilityPoison, Target: b})
	if err != nil {
		t.Fatalf("poison: %v", err)
	}
	if len(res.Applied) != 1 || res.TotalDamage != 0 {
		t.Fatalf("poison must register one DoT and deal no instant damage: %+v", res)
	}
	if f.effects.For(b).Count() != 1 {
		t.Fatal("bob must carry the poison")
	}
	b.DrainMessages()

	res, err = f.abilities.Execute(ctx, Request{Actor: b, AbilityName: "cure poison"})
	if err != nil {
		t.Fatalf("cure: %v", err)
	}
	if res.Target != b || res.Effects[0].Value != 1 {
		t.Fatalf("cure must remove one effect from its caster: %+v", res.Effects)
	}
	if f.effects.For(b).Count() != 0 {
		t.Error("poison still active")
	}
	if !slices.Contains(b.DrainMessages(), "You feel better.") {
		t.Error("missing wear-off message")
	}
}
