package skill

import (
	"github.com/udisondev/mudcore/internal/catalog"
)

// handleCleanse removes harmful active effects from the target.
// Params: category ("" matches any), potency, count (0 = all).
func handleCleanse(ex *Executor, def *catalog.EffectDefinition, p Params, ectx *EffectContext) (EffectResult, error) {
	return removeMatching(ex, p, ectx, true)
}

// handleDispel removes beneficial active effects from the target.
// Same params as cleanse.
func handleDispel(ex *Executor, def *catalog.EffectDefinition, p Params, ectx *EffectContext) (EffectResult, error) {
	return removeMatching(ex, p, ectx, false)
}

func removeMatching(ex *Executor, p Params, ectx *EffectContext, harmful bool) (EffectResult, error) {
	target := ectx.Target
	if target == nil {
		target = ectx.Actor
	}

	var res EffectResult
	if ex.effects == nil {
		return res, nil
	}
	m := ex.effects.Get(target.ID())
	if m == nil {
		res.setMessages(p, ectx, target)
		return res, nil
	}

	removed := m.Cure(p.Text("category"), int32(p.Int("potency", 0)), harmful, int(p.Int("count", 0)))
	for _, ae := range removed {
		ex.endEffect(m, ae, ectx.Eval, true)
	}
	res.Value = int64(len(removed))
	res.Applied = len(removed) > 0

	res.setMessages(p, ectx, target)
	return res, nil
}
