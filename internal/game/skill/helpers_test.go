package skill

import (
	"context"
	"testing"
	"time"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/cooldown"
	"github.com/udisondev/mudcore/internal/formula"
	"github.com/udisondev/mudcore/internal/model"
)

const (
	abilityHide     int32 = 10
	abilityBash     int32 = 11
	abilityPoison   int32 = 12
	abilityCure     int32 = 13
	abilityFireball int32 = 14
	abilityStrength int32 = 15
)

func testRecords() *catalog.Records {
	return &catalog.Records{
		Effects: []catalog.EffectDefinition{
			{ID: 1, Name: "hidden", Kind: catalog.EffectStatus, Params: map[string]string{"flag": "hidden", "duration": "-1"}},
			{ID: 2, Name: "bash", Kind: catalog.EffectDamage, Params: map[string]string{"amount": "10", "msg_target": "$n bashes you for $v."}},
			{ID: 3, Name: "stun", Kind: catalog.EffectStatus, Params: map[string]string{"flag": "stunned", "duration": "2"}},
			{ID: 4, Name: "poison", Kind: catalog.EffectDamage, Params: map[string]string{
				"amount": "3", "duration": "3", "interval": "1", "category": "poison", "potency": "1",
				"wear_off": "You feel better.",
			}},
			{ID: 5, Name: "cure poison", Kind: catalog.EffectCleanse, Params: map[string]string{"category": "poison", "potency": "5"}},
			{ID: 6, Name: "strength", Kind: catalog.EffectModify, Params: map[string]string{
				"stat": "str", "amount": "2", "duration": "2", "wear_off": "You feel weaker.",
			}},
			{ID: 7, Name: "heal", Kind: catalog.EffectHeal, Params: map[string]string{"amount": "20"}},
			{ID: 8, Name: "fireball", Kind: catalog.EffectDamage, Params: map[string]string{"amount": "base_damage"}},
		},
		Abilities: []catalog.Ability{
			{ID: abilityHide, Name: "Hide", PlainName: "hide", Kind: catalog.KindSkill, Toggle: true, TargetFlags: catalog.TargetIgnore},
			{ID: abilityBash, Name: "Bash", Kind: catalog.KindSkill, Violent: true, TargetFlags: catalog.TargetCharRoom | catalog.TargetFighting | catalog.TargetNotSelf},
			{ID: abilityPoison, Name: "Poison", Kind: catalog.KindSkill, Violent: true, TargetFlags: catalog.TargetCharRoom},
			{ID: abilityCure, Name: "Cure Poison", PlainName: "cure poison", Kind: catalog.KindSpell, TargetFlags: catalog.TargetCharRoom | catalog.TargetSelf},
			{ID: abilityFireball, Name: "Fireball", Kind: catalog.KindSpell, Violent: true, TargetFlags: catalog.TargetCharRoom | catalog.TargetFighting},
			{ID: abilityStrength, Name: "Giant Strength", PlainName: "giant strength", Kind: catalog.KindSpell, TargetFlags: catalog.TargetSelf},
		},
		Links: []catalog.AbilityEffect{
			{AbilityID: abilityHide, EffectID: 1, Order: 1, Phase: catalog.PhaseOnHit, ChancePercent: 100},
			{AbilityID: abilityBash, EffectID: 3, Order: 2, Phase: catalog.PhaseOnHit, ChancePercent: 100},
			{AbilityID: abilityBash, EffectID: 2, Order: 1, Phase: catalog.PhaseOnHit, ChancePercent: 100},
			{AbilityID: abilityPoison, EffectID: 4, Order: 1, Phase: catalog.PhaseOnHit, ChancePercent: 100},
			{AbilityID: abilityCure, EffectID: 5, Order: 1, Phase: catalog.PhaseOnHit, ChancePercent: 100},
			{AbilityID: abilityFireball, EffectID: 8, Order: 1, Phase: catalog.PhaseOnHit, ChancePercent: 100},
			{AbilityID: abilityStrength, EffectID: 6, Order: 1, Phase: catalog.PhaseOnHit, ChancePercent: 100},
			{AbilityID: abilityStrength, EffectID: 7, Order: 1, Phase: catalog.PhaseOnEnd, ChancePercent: 100},
		},
		Messages: []catalog.Messages{
			{AbilityID: abilityHide, ActorHit: "You blend into the shadows.", WearOff: "You step out of the shadows."},
			{AbilityID: abilityBash, ActorHit: "You bash $N!", ActorMiss: "You miss $N.", RoomHit: "$n bashes $N."},
		},
		Restrictions: []catalog.Restriction{
			{AbilityID: abilityBash, MinPosition: model.PositionFighting, MoveCost: 10, Cooldown: 3 * time.Second},
			{AbilityID: abilityFireball, MinPosition: model.PositionFighting, ManaCost: 15, CastTime: 20 * time.Millisecond},
		},
		DamageComponents: []catalog.DamageComponent{
			{AbilityID: abilityFireball, Element: "fire", Formula: "12"},
		},
	}
}

type fixture struct {
	catalog   *catalog.Catalog
	effects   *EffectManagers
	exec      *Executor
	abilities *AbilityExecutor
	cooldowns *cooldown.MemoryStore
	clock     *fakeClock
	room      *model.Room
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func alwaysHit(model.Actor, model.Actor, *catalog.Ability, int32, *formula.Evaluator) bool {
	return true
}

func newFixture(t *testing.T, hit HitResolver) *fixture {
	t.Helper()

	cat := catalog.New(&catalog.MemorySource{Records: testRecords()})
	if err := cat.Initialize(context.Background()); err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	if hit == nil {
		hit = HitResolverFunc(alwaysHit)
	}

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	f := &fixture{
		catalog:   cat,
		effects:   NewEffectManagers(),
		cooldowns: cooldown.NewMemoryStore(clock),
		clock:     clock,
		room:      model.NewRoom(3001, "Temple"),
	}
	f.exec = NewExecutor(cat, f.effects)
	f.abilities = NewAbilityExecutor(cat, f.exec, f.effects, f.cooldowns, hit, nil)
	return f
}

func (f *fixture) player(t *testing.T, id, name string, level int32) *model.Player {
	t.Helper()
	p := model.NewPlayer(model.CharacterConfig{
		ID:       id,
		Name:     name,
		Level:    level,
		Stats:    model.Stats{Str: 14, Dex: 12, Con: 12, Int: 10, Wis: 10, Cha: 10},
		MaxHP:    100,
		MaxMana:  50,
		MaxMoves: 60,
		Skills:   map[string]int32{"hide": 50, "bash": 60},
	})
	if err := f.room.Enter(p); err != nil {
		t.Fatalf("entering room: %v", err)
	}
	return p
}

func (f *fixture) effectContext(actor, target model.Actor) *EffectContext {
	return &EffectContext{
		Actor:   actor,
		Target:  target,
		Formula: BuildFormulaContext(actor, target, 50),
		Eval:    formula.NewEvaluator(42),
	}
}
