package model

import (
	"strings"
	"sync"
)

const maxPendingMessages = 256

// Character is the shared base of players and mobiles.
// All accessors are safe for concurrent use.
type Character struct {
	mu sync.RWMutex

	id    string
	name  string
	role  Role
	level int32

	position Position
	stats    Stats

	perception   int32
	concealment  int32
	armor        int32
	weaponDamage int32

	current [3]int32
	max     [3]int32

	privilege   Privilege
	permissions map[string]struct{}
	skills      map[string]int32
	flags       map[string]struct{}

	room     *Room
	fighting Actor

	// Active effect bonuses. Interface to avoid import cycle model ↔ skill.
	bonus StatBonusProvider

	output  func(string)
	pending []string

	player *Player
	mobile *Mobile
}

// CharacterConfig holds the initial values of a Character.
type CharacterConfig struct {
	ID           string
	Name         string
	Level        int32
	Stats        Stats
	MaxHP        int32
	MaxMana      int32
	MaxMoves     int32
	Perception   int32
	Concealment  int32
	Armor        int32
	WeaponDamage int32
	Skills       map[string]int32
}

func newCharacter(cfg CharacterConfig, role Role) *Character {
	c := &Character{
		id:           cfg.ID,
		name:         cfg.Name,
		role:         role,
		level:        cfg.Level,
		position:     PositionStanding,
		stats:        cfg.Stats,
		perception:   cfg.Perception,
		concealment:  cfg.Concealment,
		armor:        cfg.Armor,
		weaponDamage: cfg.WeaponDamage,
		privilege:    PrivilegePlayer,
		permissions:  make(map[string]struct{}),
		skills:       make(map[string]int32, len(cfg.Skills)),
		flags:        make(map[string]struct{}),
	}
	c.max = [3]int32{max(cfg.MaxHP, 1), max(cfg.MaxMana, 0), max(cfg.MaxMoves, 0)}
	c.current = c.max
	for name, lvl := range cfg.Skills {
		c.skills[strings.ToLower(name)] = lvl
	}
	return c
}

func (c *Character) ID() string   { return c.id }
func (c *Character) Name() string { return c.name }
func (c *Character) Role() Role   { return c.role }

func (c *Character) AsPlayer() (*Player, bool) { return c.player, c.player != nil }
func (c *Character) AsMobile() (*Mobile, bool) { return c.mobile, c.mobile != nil }

func (c *Character) Level() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// SetLevel sets the character level (minimum 1).
func (c *Character) SetLevel(level int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = max(level, 1)
}

func (c *Character) Position() Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

func (c *Character) SetPosition(p Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
}

// SetStatBonusProvider attaches the provider of effect-based stat bonuses.
func (c *Character) SetStatBonusProvider(p StatBonusProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bonus = p
}

func (c *Character) bonusFor(stat string) int32 {
	if c.bonus == nil {
		return 0
	}
	return c.bonus.StatBonus(stat)
}

// Stats returns base attributes plus active effect bonuses.
func (c *Character) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	for _, name := range []string{StatStr, StatDex, StatCon, StatInt, StatWis, StatCha} {
		if b := c.bonusFor(name); b != 0 {
			s = s.With(name, b)
		}
	}
	return s
}

func (c *Character) Perception() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.perception + c.bonusFor(StatPerception)
}

func (c *Character) Concealment() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.concealment + c.bonusFor(StatConcealment)
}

func (c *Character) ArmorRating() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.armor + c.bonusFor(StatArmor)
}

func (c *Character) WeaponDamage() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.weaponDamage + c.bonusFor(StatDamage)
}

func (c *Character) Resource(r Resource) int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current[r]
}

func (c *Character) MaxResource(r Resource) int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if r == ResourceHP {
		return max(c.max[r]+c.bonusFor(StatMaxHP), 1)
	}
	return c.max[r]
}

// AdjustResource adds delta to the pool, clamped to [0, max].
// Returns the delta actually applied.
func (c *Character) AdjustResource(r Resource, delta int32) int32 {
	limit := c.MaxResource(r)

	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.current[r]
	after := min(max(before+delta, 0), limit)
	c.current[r] = after
	if r == ResourceHP && after == 0 && before > 0 {
		c.position = PositionDead
		c.fighting = nil
	}
	return after - before
}

// SetResource sets the pool value, clamped to [0, max].
func (c *Character) SetResource(r Resource, value int32) {
	c.AdjustResource(r, value-c.Resource(r))
}

// Restore refills every pool and stands a dead or ghostly character up.
func (c *Character) Restore() {
	maxHP := c.MaxResource(ResourceHP)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.max
	c.current[ResourceHP] = maxHP
	if c.position <= PositionGhost {
		c.position = PositionStanding
	}
}

func (c *Character) IsDead() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position == PositionDead || c.current[ResourceHP] <= 0
}

// SkillLevel returns the proficiency in a skill (case-insensitive).
func (c *Character) SkillLevel(name string) (int32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lvl, ok := c.skills[strings.ToLower(name)]
	return lvl, ok
}

// SetSkill sets a skill proficiency.
func (c *Character) SetSkill(name string, level int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skills[strings.ToLower(name)] = level
}

func (c *Character) Privilege() Privilege {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.privilege
}

func (c *Character) SetPrivilege(p Privilege) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.privilege = p
}

func (c *Character) HasPermission(perm string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.permissions[strings.ToLower(perm)]
	return ok
}

// GrantPermission adds an explicit permission string.
func (c *Character) GrantPermission(perm string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permissions[strings.ToLower(perm)] = struct{}{}
}

func (c *Character) HasFlag(flag string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.flags[flag]
	return ok
}

func (c *Character) SetFlag(flag string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.flags[flag] = struct{}{}
	} else {
		delete(c.flags, flag)
	}
}

func (c *Character) Room() *Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

func (c *Character) setRoom(r *Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = r
}

func (c *Character) Fighting() Actor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fighting
}

func (c *Character) SetFighting(a Actor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fighting = a
	if a != nil && c.position == PositionStanding {
		c.position = PositionFighting
	}
	if a == nil && c.position == PositionFighting {
		c.position = PositionStanding
	}
}

// SetOutput routes messages to fn instead of the pending buffer.
func (c *Character) SetOutput(fn func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output = fn
}

// Send delivers a message to the character.
func (c *Character) Send(msg string) {
	if msg == "" {
		return
	}
	c.mu.Lock()
	out := c.output
	if out == nil {
		if len(c.pending) >= maxPendingMessages {
			c.pending = c.pending[1:]
		}
		c.pending = append(c.pending, msg)
	}
	c.mu.Unlock()

	if out != nil {
		out(msg)
	}
}

// DrainMessages returns and clears the buffered messages.
func (c *Character) DrainMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.pending
	c.pending = nil
	return msgs
}
