package model

import "strings"

// Position is an actor's posture. Values are ordered: a restriction
// "requires at least Resting" is expressed as pos >= PositionResting.
type Position uint8

const (
	PositionDead Position = iota
	PositionGhost
	PositionSleeping
	PositionResting
	PositionSitting
	PositionFighting
	PositionStanding
)

var positionNames = [...]string{
	PositionDead:     "dead",
	PositionGhost:    "ghost",
	PositionSleeping: "sleeping",
	PositionResting:  "resting",
	PositionSitting:  "sitting",
	PositionFighting: "fighting",
	PositionStanding: "standing",
}

func (p Position) String() string {
	if int(p) < len(positionNames) {
		return positionNames[p]
	}
	return "unknown"
}

// ParsePosition parses a position name (case-insensitive).
func ParsePosition(s string) (Position, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range positionNames {
		if name == s {
			return Position(i), true
		}
	}
	return 0, false
}

// IsAwake reports whether the actor can perceive and act normally.
func (p Position) IsAwake() bool {
	return p > PositionSleeping
}
