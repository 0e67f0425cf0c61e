package skill

import (
	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/formula"
	"github.com/udisondev/mudcore/internal/model"
)

// HitResolver decides whether an ability use lands.
type HitResolver interface {
	ResolveHit(actor, target model.Actor, ability *catalog.Ability, skillLevel int32, eval *formula.Evaluator) bool
}

// HitResolverFunc adapts a function to HitResolver.
type HitResolverFunc func(actor, target model.Actor, ability *catalog.Ability, skillLevel int32, eval *formula.Evaluator) bool

func (f HitResolverFunc) ResolveHit(actor, target model.Actor, ability *catalog.Ability, skillLevel int32, eval *formula.Evaluator) bool {
	return f(actor, target, ability, skillLevel, eval)
}

// ProficiencyHitResolver always lands non-violent and self-targeted
// abilities. Violent abilities roll against
// 50 + skill/2 + 2*(actor level - target level) - armor/10, clamped to 5..95.
type ProficiencyHitResolver struct{}

func (ProficiencyHitResolver) ResolveHit(actor, target model.Actor, ability *catalog.Ability, skillLevel int32, eval *formula.Evaluator) bool {
	if !ability.Violent || target == nil || target.ID() == actor.ID() {
		return true
	}
	chance := 50 + skillLevel/2 + 2*(actor.Level()-target.Level()) - target.ArmorRating()/10
	chance = min(max(chance, 5), 95)
	return eval.Chance(int(chance))
}
