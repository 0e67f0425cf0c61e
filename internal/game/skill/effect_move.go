package skill

import (
	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// handleMove forces the target through an exit.
// Params: direction (random exit when empty).
// Having no usable exit is a no-op, not an error.
func handleMove(ex *Executor, def *catalog.EffectDefinition, p Params, ectx *EffectContext) (EffectResult, error) {
	target := ectx.Target
	if target == nil {
		target = ectx.Actor
	}
	var res EffectResult

	room := target.Room()
	if room == nil {
		return res, nil
	}

	var dir model.Direction
	if name := p.Text("direction"); name != "" {
		d, ok := model.ParseDirection(name)
		if !ok {
			return res, errs.InvalidArgumentf("unknown direction %q", name)
		}
		dir = d
	} else {
		exits := room.Exits()
		if len(exits) == 0 {
			return res, nil
		}
		n, err := ectx.Eval.Roll(1, int64(len(exits)))
		if err != nil {
			return res, err
		}
		dir = exits[n-1]
	}

	to, ok := room.Exit(dir)
	if !ok {
		return res, nil
	}

	res.setMessages(p, ectx, target)
	if res.ToRoom != "" {
		room.Broadcast(res.ToRoom, ectx.Actor, target)
		res.ToRoom = ""
	}

	if opp := target.Fighting(); opp != nil {
		opp.SetFighting(nil)
		target.SetFighting(nil)
	}
	if err := to.Enter(target); err != nil {
		return res, err
	}
	res.Applied = true
	res.Value = 1
	return res, nil
}
