package model

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// MaxAliases limits the personal alias table of a player.
const MaxAliases = 50

// Player is a connected character with a personal alias table.
type Player struct {
	*Character

	aliasMu sync.RWMutex
	aliases map[string]string
}

// NewPlayer creates a player with PrivilegePlayer.
func NewPlayer(cfg CharacterConfig) *Player {
	p := &Player{
		Character: newCharacter(cfg, RolePlayer),
		aliases:   make(map[string]string),
	}
	p.player = p
	return p
}

// Alias returns the expansion of an alias (case-insensitive).
func (p *Player) Alias(name string) (string, bool) {
	p.aliasMu.RLock()
	defer p.aliasMu.RUnlock()
	exp, ok := p.aliases[strings.ToLower(name)]
	return exp, ok
}

// SetAlias stores an alias. Returns false when the table is full.
func (p *Player) SetAlias(name, expansion string) bool {
	p.aliasMu.Lock()
	defer p.aliasMu.Unlock()
	key := strings.ToLower(name)
	if _, exists := p.aliases[key]; !exists && len(p.aliases) >= MaxAliases {
		return false
	}
	p.aliases[key] = expansion
	return true
}

// RemoveAlias deletes an alias and reports whether it existed.
func (p *Player) RemoveAlias(name string) bool {
	p.aliasMu.Lock()
	defer p.aliasMu.Unlock()
	key := strings.ToLower(name)
	if _, ok := p.aliases[key]; !ok {
		return false
	}
	delete(p.aliases, key)
	return true
}

// AliasNames returns alias names sorted alphabetically.
func (p *Player) AliasNames() []string {
	p.aliasMu.RLock()
	defer p.aliasMu.RUnlock()
	return slices.Sorted(maps.Keys(p.aliases))
}
