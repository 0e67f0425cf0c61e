package skill

import (
	"strings"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/formula"
	"github.com/udisondev/mudcore/internal/model"
)

// EffectContext carries everything a handler needs for one execution.
type EffectContext struct {
	Actor      model.Actor
	Target     model.Actor
	Ability    *catalog.Ability
	SkillLevel int32
	Formula    *formula.Context
	Eval       *formula.Evaluator

	// Link is the ability link being executed, nil for direct calls.
	Link *catalog.AbilityEffect
}

// Room returns the actor's current room.
func (c *EffectContext) Room() *model.Room {
	if c.Actor == nil {
		return nil
	}
	return c.Actor.Room()
}

func (c *EffectContext) abilityID() int32 {
	if c.Ability == nil {
		return 0
	}
	return c.Ability.ID
}

// Params are effect parameters with formulas already resolved.
type Params struct {
	num  map[string]int64
	text map[string]string
}

func (p Params) Has(key string) bool {
	_, ok := p.num[key]
	if !ok {
		_, ok = p.text[key]
	}
	return ok
}

// Int returns a resolved numeric parameter or def when absent.
func (p Params) Int(key string, def int64) int64 {
	if v, ok := p.num[key]; ok {
		return v
	}
	return def
}

// Text returns a text parameter or "" when absent.
func (p Params) Text(key string) string {
	return p.text[key]
}

// Bool treats any non-zero number, "true" or "yes" as true.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p.num[key]; ok {
		return v != 0
	}
	switch strings.ToLower(p.text[key]) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	return def
}
