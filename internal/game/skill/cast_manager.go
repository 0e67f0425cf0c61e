package skill

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// CompletionRunner runs a cast completion on behalf of the caster.
// The command layer passes its per-actor queue here so completions never
// interleave with the caster's own commands.
type CompletionRunner func(caster model.Actor, fn func(ctx context.Context))

// CastResultFunc receives the outcome of a completed cast.
type CastResultFunc func(caster model.Actor, res *AbilityResult, err error)

type pendingCast struct {
	abilityID int32
	target    model.Actor
	circle    int32
	timer     *time.Timer
}

// CastManager implements two-phase casting: BeginCasting records the cast
// and schedules ExecuteCompletedCast after the ability's cast time.
type CastManager struct {
	abilities *AbilityExecutor

	mu      sync.Mutex
	pending map[string]*pendingCast

	run      CompletionRunner
	onResult CastResultFunc
}

// NewCastManager creates a cast manager. A nil run executes completions on
// the timer goroutine; a nil onResult only logs.
func NewCastManager(abilities *AbilityExecutor, run CompletionRunner, onResult CastResultFunc) *CastManager {
	if run == nil {
		run = func(_ model.Actor, fn func(ctx context.Context)) { fn(context.Background()) }
	}
	return &CastManager{
		abilities: abilities,
		pending:   make(map[string]*pendingCast),
		run:       run,
		onResult:  onResult,
	}
}

// BeginCasting validates the cast and schedules its completion. circle,
// when positive, is used as the skill level of the completed cast.
// Abilities without a cast time complete before BeginCasting returns.
func (cm *CastManager) BeginCasting(ctx context.Context, caster model.Actor, abilityID int32, target model.Actor, circle int32) error {
	snap := cm.abilities.catalog.Snapshot()
	if snap == nil {
		return errs.InvalidStatef("ability catalog not loaded")
	}
	ability, err := snap.Ability(abilityID)
	if err != nil {
		return err
	}
	if cm.IsCasting(caster.ID()) {
		return errs.InvalidStatef("you are already casting").WithMeta("reason", "casting")
	}

	resolved, err := cm.abilities.resolveTarget(ability, caster, target)
	if err != nil {
		return err
	}
	restr, _ := snap.Restriction(ability.ID)
	if err := cm.abilities.CheckPrerequisites(ctx, caster, resolved, ability, restr); err != nil {
		return err
	}

	var castTime time.Duration
	if restr != nil {
		castTime = restr.CastTime
	}
	if castTime <= 0 {
		res, err := cm.ExecuteCompletedCast(ctx, caster, abilityID, resolved)
		cm.report(caster, res, err)
		return nil
	}

	pc := &pendingCast{abilityID: abilityID, target: resolved, circle: circle}
	cm.mu.Lock()
	cm.pending[caster.ID()] = pc
	pc.timer = time.AfterFunc(castTime, func() {
		cm.run(caster, func(ctx context.Context) {
			if !cm.take(caster.ID(), pc) {
				return
			}
			res, err := cm.complete(ctx, caster, pc)
			cm.report(caster, res, err)
		})
	})
	cm.mu.Unlock()

	caster.Send("You begin casting " + ability.Name + ".")
	slog.Debug("cast started",
		"caster", caster.Name(),
		"ability", ability.Key(),
		"castTime", castTime)
	return nil
}

// ExecuteCompletedCast runs the ability of a finished cast.
func (cm *CastManager) ExecuteCompletedCast(ctx context.Context, caster model.Actor, abilityID int32, target model.Actor) (*AbilityResult, error) {
	var circle int32
	cm.mu.Lock()
	if pc, ok := cm.pending[caster.ID()]; ok && pc.abilityID == abilityID {
		pc.timer.Stop()
		circle = pc.circle
		delete(cm.pending, caster.ID())
	}
	cm.mu.Unlock()

	return cm.complete(ctx, caster, &pendingCast{abilityID: abilityID, target: target, circle: circle})
}

func (cm *CastManager) complete(ctx context.Context, caster model.Actor, pc *pendingCast) (*AbilityResult, error) {
	if caster.IsDead() {
		return nil, errs.InvalidStatef("%s died while casting", caster.Name()).WithMeta("reason", "position")
	}
	return cm.abilities.Execute(ctx, Request{
		Actor:      caster,
		AbilityID:  pc.abilityID,
		Target:     pc.target,
		SkillLevel: pc.circle,
	})
}

// take removes pc from pending if it is still the caster's current cast.
func (cm *CastManager) take(casterID string, pc *pendingCast) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.pending[casterID] != pc {
		return false
	}
	delete(cm.pending, casterID)
	return true
}

func (cm *CastManager) report(caster model.Actor, res *AbilityResult, err error) {
	if err != nil {
		caster.Send(errs.Message(err))
		slog.Debug("cast failed", "caster", caster.Name(), "error", err)
	}
	if cm.onResult != nil {
		cm.onResult(caster, res, err)
	}
}

// Interrupt cancels the actor's pending cast. Implements Interrupter.
func (cm *CastManager) Interrupt(actorID string) bool {
	cm.mu.Lock()
	pc, ok := cm.pending[actorID]
	if ok {
		pc.timer.Stop()
		delete(cm.pending, actorID)
	}
	cm.mu.Unlock()

	if ok {
		slog.Debug("cast interrupted", "actor", actorID, "ability", pc.abilityID)
	}
	return ok
}

// IsCasting reports whether the actor has a pending cast.
func (cm *CastManager) IsCasting(actorID string) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	_, ok := cm.pending[actorID]
	return ok
}

// Pending returns the ability id of the actor's pending cast.
func (cm *CastManager) Pending(actorID string) (int32, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	pc, ok := cm.pending[actorID]
	if !ok {
		return 0, false
	}
	return pc.abilityID, true
}

var _ Interrupter = (*CastManager)(nil)
