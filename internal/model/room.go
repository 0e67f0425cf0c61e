package model

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Direction is an exit direction.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
	Up
	Down
)

var directionNames = [...]string{"north", "east", "south", "west", "up", "down"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "somewhere"
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Up:
		return Down
	}
	return Up
}

// ParseDirection accepts full names and unique prefixes ("n", "we").
func ParseDirection(s string) (Direction, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	for i, name := range directionNames {
		if strings.HasPrefix(name, s) {
			return Direction(i), true
		}
	}
	return 0, false
}

// Room is a location holding actors.
type Room struct {
	id   int32
	name string

	mu        sync.RWMutex
	exits     map[Direction]*Room
	occupants map[string]Actor
}

func NewRoom(id int32, name string) *Room {
	return &Room{
		id:        id,
		name:      name,
		exits:     make(map[Direction]*Room),
		occupants: make(map[string]Actor),
	}
}

func (r *Room) ID() int32    { return r.id }
func (r *Room) Name() string { return r.name }

// Link connects two rooms in both directions.
func (r *Room) Link(dir Direction, to *Room) {
	r.mu.Lock()
	r.exits[dir] = to
	r.mu.Unlock()

	to.mu.Lock()
	to.exits[dir.Reverse()] = r
	to.mu.Unlock()
}

// Exit returns the neighbour in the given direction.
func (r *Room) Exit(dir Direction) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	to, ok := r.exits[dir]
	return to, ok
}

// Exits returns the available directions in canonical order.
func (r *Room) Exits() []Direction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dirs := make([]Direction, 0, len(r.exits))
	for d := range r.exits {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs
}

// roomMember is satisfied by *Player and *Mobile through the embedded Character.
type roomMember interface {
	Actor
	setRoom(*Room)
}

// Enter places the actor into this room, removing it from its previous one.
func (r *Room) Enter(a Actor) error {
	m, ok := a.(roomMember)
	if !ok {
		return fmt.Errorf("actor %s cannot be placed in a room", a.ID())
	}
	if prev := a.Room(); prev != nil && prev != r {
		prev.remove(a.ID())
	}
	r.mu.Lock()
	r.occupants[a.ID()] = a
	r.mu.Unlock()
	m.setRoom(r)
	return nil
}

// Leave removes the actor from the room.
func (r *Room) Leave(a Actor) {
	r.remove(a.ID())
	if m, ok := a.(roomMember); ok && a.Room() == r {
		m.setRoom(nil)
	}
}

func (r *Room) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.occupants, id)
}

// Occupants returns actors sorted by id so iteration order is stable.
func (r *Room) Occupants() []Actor {
	r.mu.RLock()
	out := make([]Actor, 0, len(r.occupants))
	for _, a := range r.occupants {
		out = append(out, a)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Actor) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}

// Find returns the first occupant (by id order) whose name starts with prefix.
func (r *Room) Find(prefix string, exclude Actor) (Actor, bool) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, false
	}
	for _, a := range r.Occupants() {
		if exclude != nil && a.ID() == exclude.ID() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(a.Name()), prefix) {
			return a, true
		}
	}
	return nil, false
}

// Broadcast sends msg to every occupant except the excluded ones.
func (r *Room) Broadcast(msg string, exclude ...Actor) {
	if msg == "" {
		return
	}
	for _, a := range r.Occupants() {
		if slices.ContainsFunc(exclude, func(e Actor) bool { return e != nil && e.ID() == a.ID() }) {
			continue
		}
		a.Send(msg)
	}
}
