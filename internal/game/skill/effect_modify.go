package skill

import (
	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// handleModify either shifts a resource pool instantly (resource param)
// or grants a timed stat modifier (stat param, duration required).
// Params: amount (signed), stat | resource, duration, stack_cap.
func handleModify(ex *Executor, def *catalog.EffectDefinition, p Params, ectx *EffectContext) (EffectResult, error) {
	target := ectx.Target
	if target == nil {
		target = ectx.Actor
	}
	amount := p.Int("amount", 0)

	var res EffectResult
	switch {
	case p.Text("resource") != "" && p.Int("duration", 0) == 0:
		r, ok := model.ParseResource(p.Text("resource"))
		if !ok {
			return res, errs.InvalidArgumentf("unknown resource %q", p.Text("resource"))
		}
		delta := max(min(amount, 1<<30), -(1 << 30))
		res.Value = int64(target.AdjustResource(r, int32(delta)))
		res.Applied = res.Value != 0

	case p.Text("stat") != "":
		if p.Int("duration", 0) == 0 {
			return res, errs.InvalidArgumentf("%s: stat modifier needs a duration", def.Name)
		}
		ae := ex.newActive(def, p, ectx, target)
		ae.Modifiers = []StatModifier{{Stat: p.Text("stat"), Value: int32(max(min(amount, 1<<20), -(1 << 20)))}}
		if amount < 0 {
			ae.Harmful = true
		}
		res.Active = ae
		res.Applied = true
		res.Value = amount

	default:
		return res, errs.InvalidArgumentf("%s: modify needs a stat or resource", def.Name)
	}

	res.setMessages(p, ectx, target)
	return res, nil
}
