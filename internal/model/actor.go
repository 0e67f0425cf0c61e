package model

// Role tags the concrete kind of an actor.
type Role uint8

const (
	RoleMobile Role = iota
	RolePlayer
)

func (r Role) String() string {
	if r == RolePlayer {
		return "player"
	}
	return "mobile"
}

// Resource is a depletable pool on an actor.
type Resource uint8

const (
	ResourceHP Resource = iota
	ResourceMana
	ResourceMoves
)

// ParseResource parses "hp", "mana" or "moves".
func ParseResource(s string) (Resource, bool) {
	switch s {
	case "hp", "health":
		return ResourceHP, true
	case "mana", "mp":
		return ResourceMana, true
	case "moves", "mv":
		return ResourceMoves, true
	}
	return 0, false
}

func (r Resource) String() string {
	switch r {
	case ResourceMana:
		return "mana"
	case ResourceMoves:
		return "moves"
	}
	return "hp"
}

// Actor is the collaborator interface the rules core reads and mutates.
// Capability queries (AsPlayer, AsMobile) replace type assertions on
// concrete types.
type Actor interface {
	ID() string
	Name() string
	Role() Role
	Level() int32

	Position() Position
	SetPosition(Position)

	Stats() Stats
	Perception() int32
	Concealment() int32
	ArmorRating() int32
	WeaponDamage() int32

	Resource(r Resource) int32
	MaxResource(r Resource) int32
	// AdjustResource adds delta clamped to [0, max] and returns the applied delta.
	AdjustResource(r Resource, delta int32) int32
	IsDead() bool

	SkillLevel(name string) (int32, bool)

	Privilege() Privilege
	HasPermission(perm string) bool

	HasFlag(flag string) bool
	SetFlag(flag string, on bool)

	Room() *Room
	Fighting() Actor
	SetFighting(Actor)

	Send(msg string)

	AsPlayer() (*Player, bool)
	AsMobile() (*Mobile, bool)
}
