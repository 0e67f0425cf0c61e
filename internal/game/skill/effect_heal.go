package skill

import (
	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// handleHeal restores a resource, instantly or over time.
// Params: amount, percent (of max), resource (hp|mana|moves), duration, interval.
func handleHeal(ex *Executor, def *catalog.EffectDefinition, p Params, ectx *EffectContext) (EffectResult, error) {
	target := ectx.Target
	if target == nil {
		target = ectx.Actor
	}

	resource := model.ResourceHP
	if name := p.Text("resource"); name != "" {
		r, ok := model.ParseResource(name)
		if !ok {
			return EffectResult{}, errs.InvalidArgumentf("unknown resource %q", name)
		}
		resource = r
	}

	amount := clampAmount(p.Int("amount", 0))
	percent := p.Int("percent", 0)

	var res EffectResult
	if p.Int("duration", 0) != 0 {
		ae := ex.newActive(def, p, ectx, target)
		ae.Amount = amount
		ae.Percent = percent
		ae.Resource = resource
		if ae.Interval <= 0 {
			ae.Interval, ae.TicksUntilNext = 1, 1
		}
		res.Active = ae
		res.Applied = true
		res.Value = amount
	} else {
		res.Value = applyHeal(target, resource, amount, percent)
		res.Applied = res.Value > 0
	}

	res.setMessages(p, ectx, target)
	return res, nil
}

// applyHeal restores amount plus percent of the maximum and returns the gain.
func applyHeal(target model.Actor, r model.Resource, amount, percent int64) int64 {
	if target.IsDead() && r == model.ResourceHP {
		return 0
	}
	total := amount
	if percent > 0 {
		total += int64(target.MaxResource(r)) * percent / 100
	}
	total = clampAmount(total)
	if total == 0 {
		return 0
	}
	return int64(target.AdjustResource(r, int32(total)))
}
