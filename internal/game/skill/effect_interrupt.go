package skill

import (
	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/errs"
)

// handleInterrupt cancels the target's pending cast.
func handleInterrupt(ex *Executor, def *catalog.EffectDefinition, p Params, ectx *EffectContext) (EffectResult, error) {
	target := ectx.Target
	if target == nil {
		return EffectResult{}, errs.InvalidStatef("%s needs a target", def.Name)
	}

	var res EffectResult
	if ex.casts != nil && ex.casts.Interrupt(target.ID()) {
		res.Applied = true
		res.Value = 1
		res.setMessages(p, ectx, target)
	}
	return res, nil
}
