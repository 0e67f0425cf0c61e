package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source performs the bulk read of catalog records.
type Source interface {
	Load(ctx context.Context) (*Records, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Records, error)

func (f SourceFunc) Load(ctx context.Context) (*Records, error) { return f(ctx) }

// Catalog is the reloadable ability/effect index.
type Catalog struct {
	src   Source
	snap  atomic.Pointer[Snapshot]
	group singleflight.Group
}

func New(src Source) *Catalog {
	return &Catalog{src: src}
}

// Initialize performs the first load.
func (c *Catalog) Initialize(ctx context.Context) error {
	return c.Reload(ctx)
}

// Reload loads and validates all records, then swaps the snapshot.
// On failure the previous snapshot stays in place.
// Concurrent callers share one load.
func (c *Catalog) Reload(ctx context.Context) error {
	_, err, _ := c.group.Do("reload", func() (any, error) {
		start := time.Now()
		rec, err := c.src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading catalog records: %w", err)
		}
		snap, err := Build(rec)
		if err != nil {
			return nil, fmt.Errorf("building catalog snapshot: %w", err)
		}
		c.snap.Store(snap)

		counts := snap.Counts()
		slog.Info("catalog loaded",
			"abilities", counts.Abilities,
			"effects", counts.Effects,
			"links", counts.Links,
			"duration", time.Since(start))
		return nil, nil
	})
	return err
}

// Snapshot returns the current snapshot or nil before the first load.
func (c *Catalog) Snapshot() *Snapshot {
	return c.snap.Load()
}

func (c *Catalog) Loaded() bool {
	return c.snap.Load() != nil
}

func (c *Catalog) current() (*Snapshot, error) {
	s := c.snap.Load()
	if s == nil {
		return nil, notLoaded()
	}
	return s, nil
}

func (c *Catalog) Ability(id int32) (*Ability, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	return s.Ability(id)
}

func (c *Catalog) AbilityByName(name string) (*Ability, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	return s.AbilityByName(name)
}

func (c *Catalog) Effect(id int32) (*EffectDefinition, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	return s.Effect(id)
}

func (c *Catalog) Links(abilityID int32) []AbilityEffect {
	if s := c.snap.Load(); s != nil {
		return s.Links(abilityID)
	}
	return nil
}

func (c *Catalog) Abilities() []*Ability {
	if s := c.snap.Load(); s != nil {
		return s.Abilities()
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
