package main

import (
	"slices"
	"strings"
	"sync"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/model"
)

// world is the in-process actor registry behind the console session.
type world struct {
	mu      sync.RWMutex
	players map[string]*model.Player
	mobiles map[string]*model.Mobile
}

func newWorld() *world {
	return &world{
		players: make(map[string]*model.Player),
		mobiles: make(map[string]*model.Mobile),
	}
}

func (w *world) FindPlayer(name string) (*model.Player, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, p := range w.players {
		if strings.EqualFold(p.Name(), name) {
			return p, true
		}
	}
	return nil, false
}

func (w *world) Players() []*model.Player {
	w.mu.RLock()
	out := make([]*model.Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	w.mu.RUnlock()

	slices.SortFunc(out, func(a, b *model.Player) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

// actor resolves an id to a player or mobile.
func (w *world) actor(id string) (model.Actor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if p, ok := w.players[id]; ok {
		return p, true
	}
	if m, ok := w.mobiles[id]; ok {
		return m, true
	}
	return nil, false
}

func (w *world) addPlayer(p *model.Player) {
	w.mu.Lock()
	w.players[p.ID()] = p
	w.mu.Unlock()
}

func (w *world) addMobile(m *model.Mobile) {
	w.mu.Lock()
	w.mobiles[m.ID()] = m
	w.mu.Unlock()
}

// populate builds the starter area and returns the console player.
// The player knows every ability in the catalog.
func (w *world) populate(cat *catalog.Catalog) *model.Player {
	square := model.NewRoom(1, "The Village Square")
	gate := model.NewRoom(2, "The North Gate")
	road := model.NewRoom(3, "A Muddy Road")
	temple := model.NewRoom(4, "The Temple Steps")
	square.Link(model.North, gate)
	gate.Link(model.North, road)
	square.Link(model.East, temple)

	skills := make(map[string]int32)
	for _, ab := range cat.Abilities() {
		skills[ab.Key()] = 75
	}

	player := model.NewPlayer(model.CharacterConfig{
		ID:           "player-1",
		Name:         "Wanderer",
		Level:        20,
		Stats:        model.Stats{Str: 16, Int: 14, Wis: 13, Dex: 15, Con: 15},
		MaxHP:        200,
		MaxMana:      150,
		MaxMoves:     100,
		Perception:   10,
		Armor:        5,
		WeaponDamage: 8,
		Skills:       skills,
	})
	player.SetPrivilege(model.PrivilegeAdmin)
	w.addPlayer(player)
	_ = square.Enter(player)

	guard := model.NewMobile(model.CharacterConfig{
		ID:           "mob-guard",
		Name:         "the gate guard",
		Level:        25,
		Stats:        model.Stats{Str: 18, Int: 10, Wis: 10, Dex: 14, Con: 17},
		MaxHP:        300,
		Perception:   20,
		Armor:        10,
		WeaponDamage: 10,
	})
	guard.SetTrigger("guard")
	w.addMobile(guard)
	_ = gate.Enter(guard)

	rat := model.NewMobile(model.CharacterConfig{
		ID:     "mob-rat",
		Name:   "a sewer rat",
		Level:  2,
		MaxHP:  20,
		Armor:  1,
		Skills: map[string]int32{},
	})
	w.addMobile(rat)
	_ = road.Enter(rat)

	return player
}
