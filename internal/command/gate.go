package command

import (
	"fmt"
	"slices"

	"github.com/udisondev/mudcore/internal/model"
)

// Commands that lift their own position restriction.
const (
	releaseCommand = "release"
	wakeCommand    = "wake"
)

// rejection is a failed authorization step.
type rejection struct {
	status  Status
	message string
}

// authorize runs the privilege, permission, level and position checks in
// that order and returns the first failure.
func authorize(actor model.Actor, info Info) *rejection {
	if actor.Privilege() < info.Privilege {
		return &rejection{StatusPermissionDenied, "You do not have the privilege to use that command."}
	}
	for _, perm := range info.Permissions {
		if !actor.HasPermission(perm) {
			return &rejection{StatusPermissionDenied, fmt.Sprintf("You lack the %q permission.", perm)}
		}
	}

	level := actor.Level()
	if info.MinLevel > 0 && level < info.MinLevel {
		return &rejection{StatusLevelRestricted, fmt.Sprintf("You must be at least level %d to use that.", info.MinLevel)}
	}
	if info.MaxLevel > 0 && level > info.MaxLevel {
		return &rejection{StatusLevelRestricted, fmt.Sprintf("That command is limited to level %d and below.", info.MaxLevel)}
	}

	if msg, ok := positionAllows(actor.Position(), info); !ok {
		return &rejection{StatusPosition, msg}
	}
	return nil
}

// Categories blocked while sitting or resting.
var standingCategories = []string{CategoryMovement, CategoryItem, CategoryCombat}

// Categories still usable while dead or a ghost.
var deadCategories = []string{CategoryInformation, CategoryCommunication}

// positionAllows is the position state machine of the authorization gate.
func positionAllows(pos model.Position, info Info) (string, bool) {
	switch pos {
	case model.PositionDead:
		if info.Name == releaseCommand || slices.Contains(deadCategories, info.Category) {
			return "", true
		}
		return "Lie still; you are DEAD!", false

	case model.PositionGhost:
		if info.Name == releaseCommand || slices.Contains(deadCategories, info.Category) {
			return "", true
		}
		return "You are a ghost. Type 'release' to return to the living.", false

	case model.PositionSleeping:
		if info.Name == wakeCommand || info.UsableSleeping {
			return "", true
		}
		return "In your dreams, or what?", false

	case model.PositionSitting, model.PositionResting:
		if info.MustStand || (!info.UsableSitting && slices.Contains(standingCategories, info.Category)) {
			return "You need to stand up first.", false
		}

	case model.PositionFighting:
		if !info.UsableFighting {
			return "No way! You're fighting for your life!", false
		}
	}
	return "", true
}
