package skill

import (
	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// handleStatus sets a status flag and optionally forces a position.
// Params: flag, position, duration (0 instant and permanent, -1 until removed).
func handleStatus(ex *Executor, def *catalog.EffectDefinition, p Params, ectx *EffectContext) (EffectResult, error) {
	target := ectx.Target
	if target == nil {
		target = ectx.Actor
	}

	flag := p.Text("flag")
	var pos *model.Position
	if name := p.Text("position"); name != "" {
		parsed, ok := model.ParsePosition(name)
		if !ok {
			return EffectResult{}, errs.InvalidArgumentf("unknown position %q", name)
		}
		pos = &parsed
	}
	if flag == "" && pos == nil {
		return EffectResult{}, errs.InvalidArgumentf("%s: status needs a flag or position", def.Name)
	}

	var res EffectResult
	if p.Int("duration", 0) != 0 {
		ae := ex.newActive(def, p, ectx, target)
		ae.Flag = flag
		ae.Position = pos
		res.Active = ae
	} else {
		if flag != "" {
			target.SetFlag(flag, true)
		}
		if pos != nil {
			target.SetPosition(*pos)
		}
	}
	res.Applied = true

	res.setMessages(p, ectx, target)
	return res, nil
}
