package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/mudcore/internal/model"
)

// MemorySource serves fixed records. Used by tests and tools.
type MemorySource struct {
	Records *Records
}

func (m *MemorySource) Load(context.Context) (*Records, error) {
	if m.Records == nil {
		return &Records{}, nil
	}
	return m.Records, nil
}

// YAMLSource reads the catalog from a YAML file.
type YAMLSource struct {
	Path string
}

func (y YAMLSource) Load(ctx context.Context) (*Records, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(y.Path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", y.Path, err)
	}
	return ParseYAML(raw)
}

type yamlCatalog struct {
	Effects   []yamlEffect  `yaml:"effects"`
	Abilities []yamlAbility `yaml:"abilities"`
}

type yamlEffect struct {
	ID     int32             `yaml:"id"`
	Name   string            `yaml:"name"`
	Kind   string            `yaml:"kind"`
	Params map[string]string `yaml:"params"`
}

type yamlAbility struct {
	ID          int32             `yaml:"id"`
	Name        string            `yaml:"name"`
	PlainName   string            `yaml:"plain_name"`
	Kind        string            `yaml:"kind"`
	Toggle      bool              `yaml:"toggle"`
	Violent     bool              `yaml:"violent"`
	Targets     []string          `yaml:"targets"`
	Restriction *yamlRestriction  `yaml:"restriction"`
	Messages    *yamlMessages     `yaml:"messages"`
	Damage      []yamlDamage      `yaml:"damage"`
	Effects     []yamlAbilityLink `yaml:"effects"`
}

type yamlRestriction struct {
	MinPosition string        `yaml:"min_position"`
	MinLevel    int32         `yaml:"min_level"`
	Mana        int32         `yaml:"mana"`
	Moves       int32         `yaml:"moves"`
	Cooldown    time.Duration `yaml:"cooldown"`
	CastTime    time.Duration `yaml:"cast_time"`
}

type yamlMessages struct {
	ActorHit    string `yaml:"actor_hit"`
	TargetHit   string `yaml:"target_hit"`
	RoomHit     string `yaml:"room_hit"`
	ActorMiss   string `yaml:"actor_miss"`
	TargetMiss  string `yaml:"target_miss"`
	RoomMiss    string `yaml:"room_miss"`
	WearOff     string `yaml:"wear_off"`
	WearOffRoom string `yaml:"wear_off_room"`
}

type yamlDamage struct {
	Element string `yaml:"element"`
	Formula string `yaml:"formula"`
}

type yamlAbilityLink struct {
	Effect    int32             `yaml:"effect"`
	Order     int32             `yaml:"order"`
	Phase     string            `yaml:"phase"`
	Chance    *int32            `yaml:"chance"`
	Condition string            `yaml:"condition"`
	Overrides map[string]string `yaml:"overrides"`
}

// ParseYAML decodes catalog records from YAML.
// Omitted chance means 100, omitted phase means on_hit.
func ParseYAML(raw []byte) (*Records, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog yaml: %w", err)
	}

	rec := &Records{}
	for _, e := range doc.Effects {
		kind, ok := ParseEffectKind(e.Kind)
		if !ok {
			return nil, invalidRecord("effect %d: unknown kind %q", e.ID, e.Kind)
		}
		rec.Effects = append(rec.Effects, EffectDefinition{ID: e.ID, Name: e.Name, Kind: kind, Params: e.Params})
	}

	var errList []error
	for _, a := range doc.Abilities {
		if err := a.appendTo(rec); err != nil {
			errList = append(errList, err)
		}
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}
	return rec, nil
}

func (a yamlAbility) appendTo(rec *Records) error {
	kind, ok := ParseAbilityKind(a.Kind)
	if !ok {
		return invalidRecord("ability %d: unknown kind %q", a.ID, a.Kind)
	}
	flags, ok := ParseTargetFlags(a.Targets)
	if !ok {
		return invalidRecord("ability %d: unknown target flag in %v", a.ID, a.Targets)
	}
	if len(a.Targets) == 0 {
		flags = TargetIgnore
	}
	rec.Abilities = append(rec.Abilities, Ability{
		ID:          a.ID,
		Name:        a.Name,
		PlainName:   a.PlainName,
		Kind:        kind,
		Toggle:      a.Toggle,
		Violent:     a.Violent,
		TargetFlags: flags,
	})

	if r := a.Restriction; r != nil {
		pos := model.PositionResting
		if r.MinPosition != "" {
			if pos, ok = model.ParsePosition(r.MinPosition); !ok {
				return invalidRecord("ability %d: unknown position %q", a.ID, r.MinPosition)
			}
		}
		rec.Restrictions = append(rec.Restrictions, Restriction{
			AbilityID:   a.ID,
			MinPosition: pos,
			MinLevel:    r.MinLevel,
			ManaCost:    r.Mana,
			MoveCost:    r.Moves,
			Cooldown:    r.Cooldown,
			CastTime:    r.CastTime,
		})
	}

	if m := a.Messages; m != nil {
		rec.Messages = append(rec.Messages, Messages{
			AbilityID:   a.ID,
			ActorHit:    m.ActorHit,
			TargetHit:   m.TargetHit,
			RoomHit:     m.RoomHit,
			ActorMiss:   m.ActorMiss,
			TargetMiss:  m.TargetMiss,
			RoomMiss:    m.RoomMiss,
			WearOff:     m.WearOff,
			WearOffRoom: m.WearOffRoom,
		})
	}

	for _, d := range a.Damage {
		rec.DamageComponents = append(rec.DamageComponents, DamageComponent{AbilityID: a.ID, Element: d.Element, Formula: d.Formula})
	}

	for _, l := range a.Effects {
		phase := PhaseOnHit
		if l.Phase != "" {
			if phase, ok = ParsePhase(l.Phase); !ok {
				return invalidRecord("ability %d: unknown phase %q", a.ID, l.Phase)
			}
		}
		chance := int32(100)
		if l.Chance != nil {
			chance = *l.Chance
		}
		rec.Links = append(rec.Links, AbilityEffect{
			AbilityID:     a.ID,
			EffectID:      l.Effect,
			Order:         l.Order,
			Phase:         phase,
			ChancePercent: chance,
			Condition:     l.Condition,
			Overrides:     l.Overrides,
		})
	}
	return nil
}
