package model

// Stats holds the six base attributes.
type Stats struct {
	Str int32
	Dex int32
	Con int32
	Int int32
	Wis int32
	Cha int32
}

// Stat names accepted by Get/With and by stat modifiers.
const (
	StatStr         = "str"
	StatDex         = "dex"
	StatCon         = "con"
	StatInt         = "int"
	StatWis         = "wis"
	StatCha         = "cha"
	StatArmor       = "armor"
	StatPerception  = "perception"
	StatConcealment = "concealment"
	StatDamage      = "damage"
	StatMaxHP       = "max_hp"
)

// Get returns the attribute by name, 0 for unknown names.
func (s Stats) Get(name string) int32 {
	switch name {
	case StatStr:
		return s.Str
	case StatDex:
		return s.Dex
	case StatCon:
		return s.Con
	case StatInt:
		return s.Int
	case StatWis:
		return s.Wis
	case StatCha:
		return s.Cha
	}
	return 0
}

// With returns a copy of s with the named attribute shifted by delta.
func (s Stats) With(name string, delta int32) Stats {
	switch name {
	case StatStr:
		s.Str += delta
	case StatDex:
		s.Dex += delta
	case StatCon:
		s.Con += delta
	case StatInt:
		s.Int += delta
	case StatWis:
		s.Wis += delta
	case StatCha:
		s.Cha += delta
	}
	return s
}

// StatBonus converts an attribute score to its modifier: 10-11 → 0, 18 → +4, 7 → -2.
func StatBonus(score int32) int64 {
	d := int64(score) - 10
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}

// StatBonusProvider provides stat bonuses from active effects.
// Interface to avoid an import cycle between model and skill.
type StatBonusProvider interface {
	StatBonus(stat string) int32
}
