package command

import (
	"time"

	"github.com/udisondev/mudcore/internal/game/skill"
)

// Status is the outcome class of a dispatch.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusNotFound
	StatusParseError
	StatusPermissionDenied
	StatusLevelRestricted
	StatusPosition
	StatusCooldown
	StatusFailed
	StatusSystemError
	// StatusIgnored is returned for empty and comment lines.
	StatusIgnored
)

var statusNames = [...]string{
	StatusSuccess:          "success",
	StatusNotFound:         "not_found",
	StatusParseError:       "parse_error",
	StatusPermissionDenied: "permission_denied",
	StatusLevelRestricted:  "level_restricted",
	StatusPosition:         "position",
	StatusCooldown:         "cooldown",
	StatusFailed:           "failed",
	StatusSystemError:      "system_error",
	StatusIgnored:          "ignored",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Result is returned by Dispatch for every input line.
type Result struct {
	ID      string
	Status  Status
	Command string
	// Message explains a rejection or failure to the actor.
	Message string
	// Remaining is the cooldown left when Status is StatusCooldown.
	Remaining time.Duration
	// HandledByTrigger is set when a mobile's trigger consumed the input.
	HandledByTrigger bool
	// Ability is the outcome of an ability invoked as a command.
	Ability  *skill.AbilityResult
	Duration time.Duration
	Err      error
}

// OK reports whether the command ran successfully.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}
