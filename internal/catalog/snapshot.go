package catalog

import (
	"cmp"
	"slices"
	"time"

	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/formula"
)

// Snapshot is an immutable, fully indexed view of the catalog.
type Snapshot struct {
	effects      map[int32]*EffectDefinition
	abilities    map[int32]*Ability
	byName       map[string]*Ability
	links        map[int32][]AbilityEffect
	messages     map[int32]*Messages
	restrictions map[int32]*Restriction
	damage       map[int32][]DamageComponent
	loadedAt     time.Time
}

// Build validates records and indexes them.
func Build(rec *Records) (*Snapshot, error) {
	if rec == nil {
		rec = &Records{}
	}
	s := &Snapshot{
		effects:      make(map[int32]*EffectDefinition, len(rec.Effects)),
		abilities:    make(map[int32]*Ability, len(rec.Abilities)),
		byName:       make(map[string]*Ability, len(rec.Abilities)),
		links:        make(map[int32][]AbilityEffect),
		messages:     make(map[int32]*Messages),
		restrictions: make(map[int32]*Restriction),
		damage:       make(map[int32][]DamageComponent),
		loadedAt:     time.Now(),
	}

	for i := range rec.Effects {
		e := rec.Effects[i]
		if _, dup := s.effects[e.ID]; dup {
			return nil, invalidRecord("duplicate effect id %d", e.ID)
		}
		for key, expr := range e.Params {
			if err := validateParam(key, expr); err != nil {
				return nil, errs.Wrapf(err, "effect %d param %q", e.ID, key)
			}
		}
		s.effects[e.ID] = &e
	}

	for i := range rec.Abilities {
		a := rec.Abilities[i]
		if _, dup := s.abilities[a.ID]; dup {
			return nil, invalidRecord("duplicate ability id %d", a.ID)
		}
		key := a.Key()
		if key == "" {
			return nil, invalidRecord("ability %d has no name", a.ID)
		}
		if other, dup := s.byName[key]; dup {
			return nil, invalidRecord("ability name %q used by %d and %d", key, other.ID, a.ID)
		}
		s.abilities[a.ID] = &a
		s.byName[key] = &a
	}

	for _, l := range rec.Links {
		if _, ok := s.abilities[l.AbilityID]; !ok {
			return nil, invalidRecord("link references unknown ability %d", l.AbilityID)
		}
		if _, ok := s.effects[l.EffectID]; !ok {
			return nil, invalidRecord("ability %d links unknown effect %d", l.AbilityID, l.EffectID)
		}
		if l.ChancePercent < 0 || l.ChancePercent > 100 {
			return nil, invalidRecord("ability %d effect %d: chance %d outside 0..100", l.AbilityID, l.EffectID, l.ChancePercent)
		}
		for key, expr := range l.Overrides {
			if err := validateParam(key, expr); err != nil {
				return nil, errs.Wrapf(err, "ability %d effect %d override %q", l.AbilityID, l.EffectID, key)
			}
		}
		s.links[l.AbilityID] = append(s.links[l.AbilityID], l)
	}
	// Ties keep insertion order.
	for id := range s.links {
		slices.SortStableFunc(s.links[id], func(a, b AbilityEffect) int {
			return cmp.Compare(a.Order, b.Order)
		})
	}

	for i := range rec.Messages {
		m := rec.Messages[i]
		if _, ok := s.abilities[m.AbilityID]; !ok {
			return nil, invalidRecord("messages reference unknown ability %d", m.AbilityID)
		}
		s.messages[m.AbilityID] = &m
	}
	for i := range rec.Restrictions {
		r := rec.Restrictions[i]
		if _, ok := s.abilities[r.AbilityID]; !ok {
			return nil, invalidRecord("restriction references unknown ability %d", r.AbilityID)
		}
		s.restrictions[r.AbilityID] = &r
	}
	for _, d := range rec.DamageComponents {
		if _, ok := s.abilities[d.AbilityID]; !ok {
			return nil, invalidRecord("damage component references unknown ability %d", d.AbilityID)
		}
		if err := formula.Validate(d.Formula); err != nil {
			return nil, errs.Wrapf(err, "ability %d damage component", d.AbilityID)
		}
		s.damage[d.AbilityID] = append(s.damage[d.AbilityID], d)
	}

	return s, nil
}

// Message parameters are plain text, everything else is a formula.
func validateParam(key, expr string) error {
	if IsTextParam(key) {
		return nil
	}
	return formula.Validate(expr)
}

// IsTextParam reports whether a parameter holds text rather than a formula.
func IsTextParam(key string) bool {
	switch key {
	case "msg_actor", "msg_target", "msg_room", "wear_off", "wear_off_room",
		"stat", "flag", "category", "resource", "position", "direction", "name":
		return true
	}
	return false
}

func (s *Snapshot) Ability(id int32) (*Ability, error) {
	if a, ok := s.abilities[id]; ok {
		return a, nil
	}
	return nil, errs.WrapWithCodef(ErrAbilityNotFound, errs.CodeNotFound, "ability %d", id)
}

// AbilityByName looks an ability up by plain name, case-insensitively.
func (s *Snapshot) AbilityByName(name string) (*Ability, error) {
	if a, ok := s.byName[normalizeName(name)]; ok {
		return a, nil
	}
	return nil, errs.WrapWithCodef(ErrAbilityNotFound, errs.CodeNotFound, "ability %q", name)
}

func (s *Snapshot) Effect(id int32) (*EffectDefinition, error) {
	if e, ok := s.effects[id]; ok {
		return e, nil
	}
	return nil, errs.WrapWithCodef(ErrEffectNotFound, errs.CodeNotFound, "effect %d", id)
}

// Links returns the ability's effect links sorted by Order.
// The returned slice must not be modified.
func (s *Snapshot) Links(abilityID int32) []AbilityEffect {
	return s.links[abilityID]
}

func (s *Snapshot) Messages(abilityID int32) (*Messages, bool) {
	m, ok := s.messages[abilityID]
	return m, ok
}

func (s *Snapshot) Restriction(abilityID int32) (*Restriction, bool) {
	r, ok := s.restrictions[abilityID]
	return r, ok
}

func (s *Snapshot) DamageComponents(abilityID int32) []DamageComponent {
	return s.damage[abilityID]
}

// Abilities returns all abilities sorted by id.
func (s *Snapshot) Abilities() []*Ability {
	out := make([]*Ability, 0, len(s.abilities))
	for _, a := range s.abilities {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *Ability) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Names returns the lookup keys of all abilities, sorted.
func (s *Snapshot) Names() []string {
	out := make([]string, 0, len(s.byName))
	for name := range s.byName {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Counts summarizes the snapshot size.
type Counts struct {
	Abilities int
	Effects   int
	Links     int
}

func (s *Snapshot) Counts() Counts {
	c := Counts{Abilities: len(s.abilities), Effects: len(s.effects)}
	for _, l := range s.links {
		c.Links += len(l)
	}
	return c
}
