package skill

import (
	"math"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// handleDamage deals amount HP damage, or starts a damage-over-time effect
// when duration is set.
// Params: amount, duration, interval, stack_cap, can_kill (default 1).
// With can_kill=0 the target is left at 1 HP at worst.
func handleDamage(ex *Executor, def *catalog.EffectDefinition, p Params, ectx *EffectContext) (EffectResult, error) {
	target := ectx.Target
	if target == nil {
		return EffectResult{}, errs.InvalidStatef("%s needs a target", def.Name)
	}

	amount := clampAmount(p.Int("amount", 0))
	canKill := p.Bool("can_kill", true)

	var res EffectResult
	if p.Int("duration", 0) != 0 {
		ae := ex.newActive(def, p, ectx, target)
		ae.Amount = amount
		ae.Resource = model.ResourceHP
		ae.CanKill = canKill
		ae.Harmful = true
		if ae.Interval <= 0 {
			ae.Interval, ae.TicksUntilNext = 1, 1
		}
		res.Active = ae
		res.Applied = true
		res.Value = amount
	} else {
		res.Value = applyDamage(target, amount, canKill)
		res.Applied = res.Value > 0
	}

	res.setMessages(p, ectx, target)
	return res, nil
}

// applyDamage reduces HP and returns the damage actually dealt.
func applyDamage(target model.Actor, amount int64, canKill bool) int64 {
	if amount <= 0 || target.IsDead() {
		return 0
	}
	if !canKill {
		hp := int64(target.Resource(model.ResourceHP))
		if amount >= hp {
			amount = hp - 1
		}
		if amount <= 0 {
			return 0
		}
	}
	return -int64(target.AdjustResource(model.ResourceHP, -int32(amount)))
}

func clampAmount(v int64) int64 {
	return min(max(v, 0), math.MaxInt32)
}
