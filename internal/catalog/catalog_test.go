package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

func testRecords() *Records {
	return &Records{
		Effects: []EffectDefinition{
			{ID: 1, Name: "hidden", Kind: EffectStatus, Params: map[string]string{"flag": "hidden", "duration": "-1"}},
			{ID: 2, Name: "bash", Kind: EffectDamage, Params: map[string]string{"amount": "1d8 + str_bonus"}},
			{ID: 3, Name: "stun", Kind: EffectStatus, Params: map[string]string{"flag": "stunned", "duration": "2"}},
		},
		Abilities: []Ability{
			{ID: 10, Name: "Hide", PlainName: "hide", Kind: KindSkill, Toggle: true, TargetFlags: TargetIgnore},
			{ID: 11, Name: "Bash", Kind: KindSkill, Violent: true, TargetFlags: TargetCharRoom | TargetFighting},
			{ID: 12, Name: "Magic Missile", PlainName: "magic missile", Kind: KindSpell, TargetFlags: TargetCharRoom},
		},
		Links: []AbilityEffect{
			{AbilityID: 10, EffectID: 1, Order: 1, Phase: PhaseOnHit, ChancePercent: 100},
			{AbilityID: 11, EffectID: 3, Order: 2, Phase: PhaseOnHit, ChancePercent: 50},
			{AbilityID: 11, EffectID: 2, Order: 1, Phase: PhaseOnHit, ChancePercent: 100},
			{AbilityID: 11, EffectID: 1, Order: 2, Phase: PhaseOnMiss, ChancePercent: 100},
		},
		Messages: []Messages{
			{AbilityID: 10, ActorHit: "You blend into the shadows.", WearOff: "You step out of the shadows."},
		},
		Restrictions: []Restriction{
			{AbilityID: 11, MinPosition: model.PositionFighting, MinLevel: 5, MoveCost: 10, Cooldown: 3 * time.Second},
		},
		DamageComponents: []DamageComponent{
			{AbilityID: 12, Element: "arcane", Formula: "2d4 + 1"},
		},
	}
}

func loadedCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := New(&MemorySource{Records: testRecords()})
	require.NoError(t, c.Initialize(context.Background()))
	return c
}

func TestCatalog_AbilityByNameIsCaseInsensitive(t *testing.T) {
	c := loadedCatalog(t)

	a, err := c.AbilityByName("HiDe")
	require.NoError(t, err)
	b, err := c.AbilityByName("hide")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, int32(10), a.ID)

	mm, err := c.AbilityByName("MAGIC MISSILE")
	require.NoError(t, err)
	assert.False(t, mm.Kind.Invocable())
}

func TestCatalog_NotFound(t *testing.T) {
	c := loadedCatalog(t)

	_, err := c.AbilityByName("fly")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.ErrorIs(t, err, ErrAbilityNotFound)

	_, err = c.Effect(99)
	assert.ErrorIs(t, err, ErrEffectNotFound)
}

func TestCatalog_NotLoaded(t *testing.T) {
	c := New(&MemorySource{})
	assert.False(t, c.Loaded())

	_, err := c.Ability(1)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.True(t, errs.IsInvalidState(err))
	assert.Nil(t, c.Links(1))
}

func TestCatalog_LinksSortedStablyByOrder(t *testing.T) {
	c := loadedCatalog(t)

	links := c.Links(11)
	require.Len(t, links, 3)
	assert.Equal(t, int32(2), links[0].EffectID)
	// Equal order keeps insertion order.
	assert.Equal(t, int32(3), links[1].EffectID)
	assert.Equal(t, int32(1), links[2].EffectID)
}

func TestCatalog_SideTables(t *testing.T) {
	snap := loadedCatalog(t).Snapshot()

	msgs, ok := snap.Messages(10)
	require.True(t, ok)
	assert.Equal(t, "You step out of the shadows.", msgs.WearOff)

	r, ok := snap.Restriction(11)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, r.Cooldown)

	assert.Len(t, snap.DamageComponents(12), 1)
	assert.Equal(t, Counts{Abilities: 3, Effects: 3, Links: 4}, snap.Counts())
	assert.Equal(t, []string{"bash", "hide", "magic missile"}, snap.Names())
}

func TestBuild_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Records)
	}{
		{"duplicate ability id", func(r *Records) { r.Abilities = append(r.Abilities, Ability{ID: 10, Name: "Other"}) }},
		{"duplicate ability name", func(r *Records) { r.Abilities = append(r.Abilities, Ability{ID: 20, Name: "HIDE"}) }},
		{"duplicate effect id", func(r *Records) { r.Effects = append(r.Effects, EffectDefinition{ID: 1}) }},
		{"unknown effect", func(r *Records) { r.Links = append(r.Links, AbilityEffect{AbilityID: 10, EffectID: 42}) }},
		{"unknown ability", func(r *Records) { r.Links = append(r.Links, AbilityEffect{AbilityID: 42, EffectID: 1}) }},
		{"chance above 100", func(r *Records) { r.Links[0].ChancePercent = 101 }},
		{"bad formula", func(r *Records) { r.Effects[1].Params["amount"] = "1d" }},
		{"bad override", func(r *Records) { r.Links[0].Overrides = map[string]string{"duration": "(("} }},
		{"bad damage formula", func(r *Records) { r.DamageComponents[0].Formula = "nope(" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecords()
			tt.mutate(rec)
			_, err := Build(rec)
			require.Error(t, err)
		})
	}
}

func TestCatalog_FailedReloadKeepsSnapshot(t *testing.T) {
	var fail atomic.Bool
	src := SourceFunc(func(context.Context) (*Records, error) {
		if fail.Load() {
			return nil, errors.New("store unavailable")
		}
		return testRecords(), nil
	})
	c := New(src)
	require.NoError(t, c.Initialize(context.Background()))
	before := c.Snapshot()

	fail.Store(true)
	require.Error(t, c.Reload(context.Background()))
	assert.Same(t, before, c.Snapshot())
}

func TestCatalog_ConcurrentReadsDuringReload(t *testing.T) {
	var loads atomic.Int32
	src := SourceFunc(func(context.Context) (*Records, error) {
		loads.Add(1)
		return testRecords(), nil
	})
	c := New(src)
	require.NoError(t, c.Initialize(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Reload(context.Background()))
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a, err := c.AbilityByName("hide")
				if assert.NoError(t, err) {
					assert.Equal(t, int32(10), a.ID)
				}
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, loads.Load(), int32(9))
}

func TestParseYAML(t *testing.T) {
	raw := []byte(`
effects:
  - id: 1
    name: hidden
    kind: status
    params:
      flag: hidden
      duration: "-1"
abilities:
  - id: 10
    name: Hide
    plain_name: hide
    kind: skill
    toggle: true
    restriction:
      min_position: standing
      moves: 5
      cooldown: 2s
    messages:
      actor_hit: You blend in.
      wear_off: You are no longer hidden.
    effects:
      - effect: 1
        order: 1
`)
	rec, err := ParseYAML(raw)
	require.NoError(t, err)

	require.Len(t, rec.Abilities, 1)
	assert.Equal(t, TargetIgnore, rec.Abilities[0].TargetFlags)
	require.Len(t, rec.Links, 1)
	assert.Equal(t, int32(100), rec.Links[0].ChancePercent)
	assert.Equal(t, PhaseOnHit, rec.Links[0].Phase)
	require.Len(t, rec.Restrictions, 1)
	assert.Equal(t, model.PositionStanding, rec.Restrictions[0].MinPosition)
	assert.Equal(t, 2*time.Second, rec.Restrictions[0].Cooldown)

	_, err = Build(rec)
	require.NoError(t, err)
}

func TestParseYAML_UnknownKind(t *testing.T) {
	_, err := ParseYAML([]byte("abilities:\n  - id: 1\n    name: x\n    kind: prayer\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestAbilityEffect_ParamsMergeOverrides(t *testing.T) {
	def := &EffectDefinition{Params: map[string]string{"amount": "1d4", "duration": "3"}}
	l := AbilityEffect{Overrides: map[string]string{"amount": "2d6"}}

	got := l.Params(def)
	assert.Equal(t, map[string]string{"amount": "2d6", "duration": "3"}, got)
	assert.Equal(t, "1d4", def.Params["amount"])
}

func TestYAMLSource_StarterCatalog(t *testing.T) {
	c := New(YAMLSource{Path: "../../data/catalog.yaml"})
	require.NoError(t, c.Initialize(context.Background()))

	fireball, err := c.AbilityByName("fireball")
	require.NoError(t, err)
	assert.Equal(t, KindSpell, fireball.Kind)
	assert.True(t, fireball.TargetFlags.NeedsTarget())

	r, ok := c.Snapshot().Restriction(fireball.ID)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, r.CastTime)
	assert.Len(t, c.Links(fireball.ID), 2)
}
