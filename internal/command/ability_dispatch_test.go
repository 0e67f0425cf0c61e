package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/cooldown"
	"github.com/udisondev/mudcore/internal/formula"
	"github.com/udisondev/mudcore/internal/game/skill"
	"github.com/udisondev/mudcore/internal/model"
)

type abilityEnv struct {
	*testEnv
	goblin *model.Mobile
}

func starterRecords(t *testing.T) *catalog.Records {
	t.Helper()
	rec, err := catalog.YAMLSource{Path: "../../data/catalog.yaml"}.Load(context.Background())
	require.NoError(t, err)
	return rec
}

// newAbilityEnv wires a dispatcher over rec with the "cast" and "look"
// commands registered next to the catalog abilities.
func newAbilityEnv(t *testing.T, rec *catalog.Records) *abilityEnv {
	t.Helper()

	env := &testEnv{
		clock: &fakeClock{now: time.Unix(1_700_000_000, 0)},
		room:  model.NewRoom(1, "Square"),
		calls: make(map[string]int),
	}
	store := cooldown.NewMemoryStore(env.clock)

	cat := catalog.New(&catalog.MemorySource{Records: rec})
	require.NoError(t, cat.Initialize(context.Background()))
	effects := skill.NewEffectManagers()
	always := skill.HitResolverFunc(func(model.Actor, model.Actor, *catalog.Ability, int32, *formula.Evaluator) bool { return true })
	abilities := skill.NewAbilityExecutor(cat, skill.NewExecutor(cat, effects), effects, store, always, nil)

	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Info{Name: "cast", Aliases: []string{"c"}, Category: CategoryCombat, UsableFighting: true, Handler: env.count("cast")}))
	require.NoError(t, reg.Register(Info{Name: "look", Category: CategoryInformation, UsableSitting: true, Handler: env.count("look")}))

	env.dispatcher = NewDispatcher(reg, Options{Abilities: abilities, Cooldowns: store, Clock: env.clock})
	t.Cleanup(env.dispatcher.Close)

	goblin := model.NewMobile(model.CharacterConfig{ID: "mob-1", Name: "goblin", Level: 5, MaxHP: 500})
	require.NoError(t, env.room.Enter(goblin))
	return &abilityEnv{testEnv: env, goblin: goblin}
}

func (e *abilityEnv) fighter(t *testing.T) *model.Player {
	t.Helper()
	p := model.NewPlayer(model.CharacterConfig{
		ID: "p1", Name: "Fighter", Level: 20,
		MaxHP: 200, MaxMana: 200, MaxMoves: 200,
		Skills: map[string]int32{"bash": 50, "hide": 50, "poison blade": 50, "giant strength": 50, "mend": 50},
	})
	require.NoError(t, e.room.Enter(p))
	return p
}

func TestDispatch_AbilityNameBeatsFuzzyCommand(t *testing.T) {
	env := newAbilityEnv(t, starterRecords(t))
	p := env.fighter(t)

	res := env.dispatcher.Dispatch(context.Background(), p, "bash goblin")
	require.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.Equal(t, "bash", res.Command)
	require.NotNil(t, res.Ability)
	assert.Equal(t, "Bash", res.Ability.Ability.Name)
	assert.Equal(t, env.goblin.ID(), res.Ability.Target.ID())
	assert.Zero(t, env.called("cast"))

	// Misspellings of command words still resolve when no ability matches.
	res = env.dispatcher.Dispatch(context.Background(), p, "cats")
	assert.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.Equal(t, 1, env.called("cast"))
}

func TestDispatch_MultiWordAbility(t *testing.T) {
	env := newAbilityEnv(t, starterRecords(t))
	p := env.fighter(t)
	ctx := context.Background()

	res := env.dispatcher.Dispatch(ctx, p, "poison blade goblin")
	require.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.Equal(t, "poison blade", res.Command)
	assert.Equal(t, env.goblin.ID(), res.Ability.Target.ID())

	res = env.dispatcher.Dispatch(ctx, p, "Giant Strength")
	require.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.Equal(t, "giant strength", res.Command)
	assert.Equal(t, p.ID(), res.Ability.Target.ID())

	res = env.dispatcher.Dispatch(ctx, p, "poison goblin")
	assert.Equal(t, StatusNotFound, res.Status)
}

func TestDispatch_AbilityPrerequisiteStatuses(t *testing.T) {
	env := newAbilityEnv(t, starterRecords(t))
	p := env.fighter(t)
	ctx := context.Background()

	res := env.dispatcher.Dispatch(ctx, p, "bash goblin")
	require.Equal(t, StatusSuccess, res.Status, res.Message)

	res = env.dispatcher.Dispatch(ctx, p, "bash goblin")
	assert.Equal(t, StatusCooldown, res.Status)
	assert.Equal(t, 8*time.Second, res.Remaining)
	assert.Contains(t, res.Message, "not ready")

	env.clock.Advance(8 * time.Second)
	p.SetPosition(model.PositionResting)
	res = env.dispatcher.Dispatch(ctx, p, "hide")
	assert.Equal(t, StatusPosition, res.Status)
	assert.Contains(t, res.Message, "resting")

	st, ok := env.dispatcher.Stats("bash")
	require.True(t, ok)
	assert.Equal(t, uint64(1), st.Success)
	assert.Equal(t, uint64(1), st.Failure)
}

func TestDispatch_AbilityEffectFailureIsRecorded(t *testing.T) {
	rec := starterRecords(t)
	rec.Effects = append(rec.Effects, catalog.EffectDefinition{
		ID: 100, Name: "broken mend", Kind: catalog.EffectHeal,
		Params: map[string]string{"amount": "nosuchvar + 1"},
	})
	rec.Abilities = append(rec.Abilities, catalog.Ability{ID: 100, Name: "Mend", Kind: catalog.KindSkill, TargetFlags: catalog.TargetSelf})
	rec.Links = append(rec.Links, catalog.AbilityEffect{AbilityID: 100, EffectID: 100, Order: 1, Phase: catalog.PhaseOnHit, ChancePercent: 100})

	env := newAbilityEnv(t, rec)
	p := env.fighter(t)

	res := env.dispatcher.Dispatch(context.Background(), p, "mend")
	assert.Equal(t, StatusFailed, res.Status)
	require.NotNil(t, res.Ability)
	assert.False(t, res.Ability.Success)
	assert.ErrorIs(t, res.Err, formula.ErrVariableNotFound)

	st, ok := env.dispatcher.Stats("mend")
	require.True(t, ok)
	assert.Equal(t, uint64(0), st.Success)
	assert.Equal(t, uint64(1), st.Failure)
	assert.Equal(t, StatusFailed, env.dispatcher.History(p.ID())[0].Status)
}

func TestDispatch_CancelledWhileQueuedIsDropped(t *testing.T) {
	env := newTestEnv(t, nil)
	started, release := make(chan struct{}), make(chan struct{})
	require.NoError(t, env.dispatcher.Registry().Register(Info{Name: "block", Handler: func(context.Context, *Request) error {
		close(started)
		<-release
		return nil
	}}))
	p := env.player(t, "1", 10)

	go env.dispatcher.Dispatch(context.Background(), p, "block")
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := env.dispatcher.Dispatch(ctx, p, "north")
	assert.Equal(t, StatusSystemError, res.Status)

	close(release)
	res = env.dispatcher.Dispatch(context.Background(), p, "look")
	require.Equal(t, StatusSuccess, res.Status)
	assert.Zero(t, env.called("north"))
}
