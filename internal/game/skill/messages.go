package skill

import (
	"strconv"
	"strings"

	"github.com/udisondev/mudcore/internal/model"
)

// expandMessage substitutes $n (actor), $N (target) and $v (value).
func expandMessage(tmpl string, actor, target model.Actor, value int64) string {
	if tmpl == "" || !strings.Contains(tmpl, "$") {
		return tmpl
	}
	actorName, targetName := "someone", "someone"
	if actor != nil {
		actorName = actor.Name()
	}
	if target != nil {
		targetName = target.Name()
	}
	return strings.NewReplacer(
		"$n", actorName,
		"$N", targetName,
		"$v", strconv.FormatInt(value, 10),
	).Replace(tmpl)
}

func (r *EffectResult) setMessages(p Params, ectx *EffectContext, target model.Actor) {
	r.ToActor = expandMessage(p.Text("msg_actor"), ectx.Actor, target, r.Value)
	r.ToTarget = expandMessage(p.Text("msg_target"), ectx.Actor, target, r.Value)
	r.ToRoom = expandMessage(p.Text("msg_room"), ectx.Actor, target, r.Value)
}
