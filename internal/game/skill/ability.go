package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/cooldown"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/formula"
	"github.com/udisondev/mudcore/internal/model"
)

// CooldownKey is the cooldown store key of an ability.
func CooldownKey(a *catalog.Ability) string {
	return "ability:" + a.Key()
}

// Request describes one ability use. Either AbilityID or AbilityName must be set.
type Request struct {
	Actor       model.Actor
	AbilityID   int32
	AbilityName string
	Target      model.Actor
	// SkillLevel overrides the actor's proficiency when > 0.
	SkillLevel int32
}

// AbilityResult is the consolidated outcome of an ability use.
type AbilityResult struct {
	Ability *catalog.Ability
	Target  model.Actor
	// Success is false when an effect failed; cooldowns are set only on success.
	Success bool
	// Toggled is set when a toggle ability was switched off.
	Toggled bool
	Hit     bool

	TotalDamage  int64
	TotalHealing int64
	Effects      []EffectResult
	Applied      []*ActiveEffect
	Cooldown     time.Duration

	ToActor  string
	ToTarget string
	ToRoom   string

	// Err holds accumulated effect failures.
	Err error
}

// AbilityExecutor runs complete ability uses.
type AbilityExecutor struct {
	catalog   *catalog.Catalog
	exec      *Executor
	effects   *EffectManagers
	cooldowns cooldown.Store
	hit       HitResolver
	evals     *formula.Pool
	tracer    trace.Tracer
}

func NewAbilityExecutor(cat *catalog.Catalog, exec *Executor, effects *EffectManagers, cooldowns cooldown.Store, hit HitResolver, evals *formula.Pool) *AbilityExecutor {
	if hit == nil {
		hit = ProficiencyHitResolver{}
	}
	if evals == nil {
		evals = formula.NewPool()
	}
	return &AbilityExecutor{
		catalog:   cat,
		exec:      exec,
		effects:   effects,
		cooldowns: cooldowns,
		hit:       hit,
		evals:     evals,
		tracer:    otel.Tracer("mudcore/skill"),
	}
}

func (ax *AbilityExecutor) Catalog() *catalog.Catalog { return ax.catalog }

func (ax *AbilityExecutor) resolveAbility(req Request) (*catalog.Ability, error) {
	if req.AbilityName != "" {
		return ax.catalog.AbilityByName(req.AbilityName)
	}
	return ax.catalog.Ability(req.AbilityID)
}

// Execute performs one ability use.
func (ax *AbilityExecutor) Execute(ctx context.Context, req Request) (*AbilityResult, error) {
	ctx, span := ax.tracer.Start(ctx, "skill.execute")
	defer span.End()

	res, err := ax.execute(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("ability", res.Ability.Key()),
		attribute.String("actor", req.Actor.Name()),
		attribute.Bool("success", res.Success),
		attribute.Bool("hit", res.Hit),
	)
	return res, nil
}

func (ax *AbilityExecutor) execute(ctx context.Context, req Request) (*AbilityResult, error) {
	snap := ax.catalog.Snapshot()
	if snap == nil {
		return nil, errs.InvalidStatef("ability catalog not loaded")
	}
	ability, err := ax.resolveAbility(req)
	if err != nil {
		return nil, err
	}
	actor := req.Actor
	res := &AbilityResult{Ability: ability}

	// Toggle off never re-applies.
	if ability.Toggle {
		if m := ax.effects.Get(actor.ID()); m != nil && m.HasAbility(ability.ID) {
			ax.toggleOff(ability, actor, m, snap, res)
			return res, nil
		}
	}

	target, err := ax.resolveTarget(ability, actor, req.Target)
	if err != nil {
		return nil, err
	}
	res.Target = target

	restr, _ := snap.Restriction(ability.ID)
	if err := ax.CheckPrerequisites(ctx, actor, target, ability, restr); err != nil {
		return nil, err
	}

	if restr != nil {
		actor.AdjustResource(model.ResourceMana, -restr.ManaCost)
		actor.AdjustResource(model.ResourceMoves, -restr.MoveCost)
	}

	skillLevel := req.SkillLevel
	if skillLevel <= 0 {
		skillLevel, _ = actor.SkillLevel(ability.Key())
	}

	eval := ax.evals.Get()
	defer ax.evals.Put(eval)

	fctx := BuildFormulaContext(actor, target, skillLevel)
	for _, dc := range snap.DamageComponents(ability.ID) {
		v, err := eval.Evaluate(dc.Formula, fctx)
		if err != nil {
			return nil, fmt.Errorf("ability %s damage component: %w", ability.Key(), err)
		}
		fctx.BaseDamage += v
	}

	ectx := &EffectContext{
		Actor:      actor,
		Target:     target,
		Ability:    ability,
		SkillLevel: skillLevel,
		Formula:    fctx,
		Eval:       eval,
	}

	links := snap.Links(ability.ID)
	periodic := filterPhase(links, catalog.PhasePeriodic)
	onEnd := filterPhase(links, catalog.PhaseOnEnd)

	var errList []error
	collect := func(b *BatchResult) {
		res.Applied = append(res.Applied, ax.exec.register(b, periodic, onEnd)...)
		res.Effects = append(res.Effects, b.Results...)
		errList = append(errList, b.Errors...)
	}

	collect(ax.exec.ExecuteAbilityEffects(links, ectx, catalog.PhaseOnCast))

	res.Hit = ax.hit.ResolveHit(actor, target, ability, skillLevel, eval)
	phase := catalog.PhaseOnMiss
	if res.Hit {
		phase = catalog.PhaseOnHit
	}
	if len(errList) == 0 || ax.exec.Policy() == Accumulate {
		collect(ax.exec.ExecuteAbilityEffects(links, ectx, phase))
	}

	for _, r := range res.Effects {
		switch r.Kind {
		case catalog.EffectDamage:
			if r.Active == nil {
				res.TotalDamage += r.Value
			}
		case catalog.EffectHeal:
			if r.Active == nil {
				res.TotalHealing += r.Value
			}
		}
	}

	res.Err = errors.Join(errList...)
	res.Success = res.Err == nil

	if ability.Violent && target != nil && target.ID() != actor.ID() && !target.IsDead() {
		if actor.Fighting() == nil {
			actor.SetFighting(target)
		}
		if target.Fighting() == nil {
			target.SetFighting(actor)
		}
	}

	if res.Success && restr != nil && restr.Cooldown > 0 && ax.cooldowns != nil {
		if err := ax.cooldowns.Set(ctx, actor.ID(), CooldownKey(ability), restr.Cooldown); err != nil {
			slog.Warn("failed to set ability cooldown", "ability", ability.Key(), "actor", actor.Name(), "error", err)
		} else {
			res.Cooldown = restr.Cooldown
		}
	}

	ax.composeMessages(snap, res, actor, target)
	ax.deliver(res, actor, target)

	slog.Debug("ability executed",
		"actor", actor.Name(),
		"ability", ability.Key(),
		"hit", res.Hit,
		"damage", res.TotalDamage,
		"healing", res.TotalHealing,
		"effects", len(res.Effects))
	return res, nil
}

func (ax *AbilityExecutor) toggleOff(ability *catalog.Ability, actor model.Actor, m *EffectManager, snap *catalog.Snapshot, res *AbilityResult) {
	removed := m.RemoveAbility(ability.ID)

	var wearOff, wearOffRoom string
	if msgs, ok := snap.Messages(ability.ID); ok {
		wearOff, wearOffRoom = msgs.WearOff, msgs.WearOffRoom
	}
	for _, ae := range removed {
		if wearOff == "" {
			wearOff = ae.WearOff
		}
		if wearOffRoom == "" {
			wearOffRoom = ae.WearOffRoom
		}
		// Delivered once below as the consolidated result.
		ae.WearOff, ae.WearOffRoom = "", ""
		ax.exec.endEffect(m, ae, nil, false)
	}
	if wearOff == "" {
		wearOff = fmt.Sprintf("You stop using %s.", ability.Name)
	}

	res.Success = true
	res.Toggled = true
	res.Target = actor
	res.ToActor = expandMessage(wearOff, actor, actor, 0)
	res.ToRoom = expandMessage(wearOffRoom, actor, actor, 0)
	ax.deliver(res, actor, actor)
}

// resolveTarget applies the ability's target flags.
func (ax *AbilityExecutor) resolveTarget(ability *catalog.Ability, actor, target model.Actor) (model.Actor, error) {
	flags := ability.TargetFlags

	if target == nil {
		switch {
		case flags.Has(catalog.TargetFighting) && actor.Fighting() != nil:
			target = actor.Fighting()
		case flags.NeedsTarget() && !flags.Has(catalog.TargetSelf):
			return nil, errs.InvalidStatef("%s needs a target", ability.Name).WithMeta("reason", "target")
		default:
			target = actor
		}
	}
	if flags.Has(catalog.TargetNotSelf) && target.ID() == actor.ID() {
		return nil, errs.InvalidStatef("you cannot use %s on yourself", ability.Name).WithMeta("reason", "target")
	}
	if flags.Has(catalog.TargetCharRoom) && target.ID() != actor.ID() && target.Room() != actor.Room() {
		return nil, errs.InvalidStatef("%s is not here", target.Name()).WithMeta("reason", "target")
	}
	return target, nil
}

// CheckPrerequisites returns the first violated precondition as an
// InvalidState error. restr may be nil.
func (ax *AbilityExecutor) CheckPrerequisites(ctx context.Context, actor, target model.Actor, ability *catalog.Ability, restr *catalog.Restriction) error {
	minPos := model.PositionResting
	if restr != nil {
		minPos = restr.MinPosition
	}
	if pos := actor.Position(); pos < minPos {
		return errs.InvalidStatef("you cannot do that while %s", pos).WithMeta("reason", "position")
	}
	if restr != nil && actor.Level() < restr.MinLevel {
		return errs.InvalidStatef("you must be level %d to use %s", restr.MinLevel, ability.Name).WithMeta("reason", "level")
	}

	if ax.cooldowns != nil && !noCooldown(actor) {
		left, err := ax.cooldowns.Remaining(ctx, actor.ID(), CooldownKey(ability))
		if err != nil {
			return fmt.Errorf("checking cooldown: %w", err)
		}
		if left > 0 {
			return errs.InvalidStatef("%s is not ready yet (%s left)", ability.Name, left.Round(100*time.Millisecond)).
				WithMeta("reason", "cooldown").
				WithMeta("remaining", left)
		}
	}

	if restr != nil {
		if restr.ManaCost > 0 && actor.Resource(model.ResourceMana) < restr.ManaCost {
			return errs.InvalidStatef("you do not have enough mana").WithMeta("reason", "mana")
		}
		if restr.MoveCost > 0 && actor.Resource(model.ResourceMoves) < restr.MoveCost {
			return errs.InvalidStatef("you are too exhausted").WithMeta("reason", "moves")
		}
	}

	if target != nil && target.ID() != actor.ID() && target.IsDead() {
		return errs.InvalidStatef("%s is already dead", target.Name()).WithMeta("reason", "target")
	}
	return nil
}

func noCooldown(a model.Actor) bool {
	info := a.Privilege().Info()
	return info != nil && info.NoCooldown
}

// composeMessages picks one message per audience. Ability overrides win
// over per-effect messages.
func (ax *AbilityExecutor) composeMessages(snap *catalog.Snapshot, res *AbilityResult, actor, target model.Actor) {
	if msgs, ok := snap.Messages(res.Ability.ID); ok {
		if res.Hit {
			res.ToActor = msgs.ActorHit
			res.ToTarget = msgs.TargetHit
			res.ToRoom = msgs.RoomHit
		} else {
			res.ToActor = msgs.ActorMiss
			res.ToTarget = msgs.TargetMiss
			res.ToRoom = msgs.RoomMiss
		}
		res.ToActor = expandMessage(res.ToActor, actor, target, res.TotalDamage+res.TotalHealing)
		res.ToTarget = expandMessage(res.ToTarget, actor, target, res.TotalDamage+res.TotalHealing)
		res.ToRoom = expandMessage(res.ToRoom, actor, target, res.TotalDamage+res.TotalHealing)
	}

	for _, r := range res.Effects {
		if res.ToActor == "" {
			res.ToActor = r.ToActor
		}
		if res.ToTarget == "" {
			res.ToTarget = r.ToTarget
		}
		if res.ToRoom == "" {
			res.ToRoom = r.ToRoom
		}
	}

	if res.ToActor == "" {
		if res.Hit {
			res.ToActor = fmt.Sprintf("You use %s.", res.Ability.Name)
		} else {
			res.ToActor = fmt.Sprintf("Your %s fails.", res.Ability.Name)
		}
	}
}

func (ax *AbilityExecutor) deliver(res *AbilityResult, actor, target model.Actor) {
	actor.Send(res.ToActor)
	if target != nil && target.ID() != actor.ID() {
		target.Send(res.ToTarget)
	}
	if room := actor.Room(); room != nil {
		room.Broadcast(res.ToRoom, actor, target)
	}
}

// BuildFormulaContext derives formula variables from actor and target.
func BuildFormulaContext(actor, target model.Actor, skillLevel int32) *formula.Context {
	stats := actor.Stats()
	c := &formula.Context{
		SkillLevel:       int64(skillLevel),
		ActorLevel:       int64(actor.Level()),
		StrBonus:         model.StatBonus(stats.Str),
		DexBonus:         model.StatBonus(stats.Dex),
		ConBonus:         model.StatBonus(stats.Con),
		IntBonus:         model.StatBonus(stats.Int),
		WisBonus:         model.StatBonus(stats.Wis),
		ChaBonus:         model.StatBonus(stats.Cha),
		WeaponDamage:     int64(actor.WeaponDamage()),
		ActorPerception:  int64(actor.Perception()),
		ActorConcealment: int64(actor.Concealment()),
	}
	if target != nil {
		c.TargetLevel = int64(target.Level())
		c.TargetPerception = int64(target.Perception())
		c.TargetConcealment = int64(target.Concealment())
		c.ArmorRating = int64(target.ArmorRating())
	}
	c.Set("actor_hp", int64(actor.Resource(model.ResourceHP)))
	c.Set("actor_mana", int64(actor.Resource(model.ResourceMana)))
	if target != nil {
		c.Set("target_hp", int64(target.Resource(model.ResourceHP)))
		c.Set("target_max_hp", int64(target.MaxResource(model.ResourceHP)))
	}
	return c
}

func filterPhase(links []catalog.AbilityEffect, phase catalog.Phase) []catalog.AbilityEffect {
	var out []catalog.AbilityEffect
	for _, l := range links {
		if l.Phase == phase {
			out = append(out, l)
		}
	}
	return out
}
