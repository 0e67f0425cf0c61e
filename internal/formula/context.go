package formula

import (
	"maps"
	"strings"
)

// Context is the flat variable namespace a formula is evaluated against.
// Built-in variables are read from the struct fields; anything else must be
// present in Custom. A missing variable is always an error.
type Context struct {
	SkillLevel  int64
	ActorLevel  int64
	TargetLevel int64

	StrBonus int64
	DexBonus int64
	ConBonus int64
	IntBonus int64
	WisBonus int64
	ChaBonus int64

	WeaponDamage int64
	BaseDamage   int64

	ActorPerception   int64
	ActorConcealment  int64
	TargetPerception  int64
	TargetConcealment int64
	ArmorRating       int64

	Custom map[string]int64
}

var builtinVars = map[string]func(c *Context) int64{
	"skill":              func(c *Context) int64 { return c.SkillLevel },
	"skill_level":        func(c *Context) int64 { return c.SkillLevel },
	"level":              func(c *Context) int64 { return c.ActorLevel },
	"actor_level":        func(c *Context) int64 { return c.ActorLevel },
	"target_level":       func(c *Context) int64 { return c.TargetLevel },
	"str_bonus":          func(c *Context) int64 { return c.StrBonus },
	"dex_bonus":          func(c *Context) int64 { return c.DexBonus },
	"con_bonus":          func(c *Context) int64 { return c.ConBonus },
	"int_bonus":          func(c *Context) int64 { return c.IntBonus },
	"wis_bonus":          func(c *Context) int64 { return c.WisBonus },
	"cha_bonus":          func(c *Context) int64 { return c.ChaBonus },
	"weapon_damage":      func(c *Context) int64 { return c.WeaponDamage },
	"base_damage":        func(c *Context) int64 { return c.BaseDamage },
	"actor_perception":   func(c *Context) int64 { return c.ActorPerception },
	"actor_concealment":  func(c *Context) int64 { return c.ActorConcealment },
	"target_perception":  func(c *Context) int64 { return c.TargetPerception },
	"target_concealment": func(c *Context) int64 { return c.TargetConcealment },
	"armor":              func(c *Context) int64 { return c.ArmorRating },
	"armor_rating":       func(c *Context) int64 { return c.ArmorRating },
}

// Set stores a custom variable. Names are case-insensitive.
func (c *Context) Set(name string, value int64) {
	if c.Custom == nil {
		c.Custom = make(map[string]int64, 4)
	}
	c.Custom[strings.ToLower(name)] = value
}

// Lookup resolves a variable by name. Built-ins shadow custom variables.
func (c *Context) Lookup(name string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	name = strings.ToLower(name)
	if get, ok := builtinVars[name]; ok {
		return get(c), true
	}
	v, ok := c.Custom[name]
	return v, ok
}

// Vars returns every resolvable variable, built-ins included.
// Used to expose the namespace to script conditions.
func (c *Context) Vars() map[string]int64 {
	out := make(map[string]int64, len(builtinVars)+len(c.Custom))
	maps.Copy(out, c.Custom)
	for name, get := range builtinVars {
		out[name] = get(c)
	}
	return out
}

// Clone returns a deep copy of c.
func (c *Context) Clone() *Context {
	cp := *c
	cp.Custom = maps.Clone(c.Custom)
	return &cp
}
