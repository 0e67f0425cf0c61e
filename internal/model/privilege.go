package model

import "strings"

// Privilege is the ordered staff hierarchy gating command availability.
type Privilege int8

const (
	PrivilegeGuest Privilege = iota
	PrivilegePlayer
	PrivilegeHelper
	PrivilegeBuilder
	PrivilegeImmortal
	PrivilegeAdmin
	PrivilegeOverlord
)

// PrivilegeInfo describes a privilege level.
type PrivilegeInfo struct {
	Level      Privilege
	Name       string
	IsStaff    bool
	CanReload  bool
	CanSlay    bool
	NoCooldown bool
}

var privileges = map[Privilege]*PrivilegeInfo{
	PrivilegeGuest:    {Level: PrivilegeGuest, Name: "guest"},
	PrivilegePlayer:   {Level: PrivilegePlayer, Name: "player"},
	PrivilegeHelper:   {Level: PrivilegeHelper, Name: "helper", IsStaff: true},
	PrivilegeBuilder:  {Level: PrivilegeBuilder, Name: "builder", IsStaff: true, CanReload: true},
	PrivilegeImmortal: {Level: PrivilegeImmortal, Name: "immortal", IsStaff: true, CanReload: true, CanSlay: true},
	PrivilegeAdmin:    {Level: PrivilegeAdmin, Name: "admin", IsStaff: true, CanReload: true, CanSlay: true},
	PrivilegeOverlord: {Level: PrivilegeOverlord, Name: "overlord", IsStaff: true, CanReload: true, CanSlay: true, NoCooldown: true},
}

// Info returns the PrivilegeInfo for p.
// Levels above Overlord inherit Overlord; negative levels (banned) return nil.
func (p Privilege) Info() *PrivilegeInfo {
	if p < 0 {
		return nil
	}
	if p > PrivilegeOverlord {
		return privileges[PrivilegeOverlord]
	}
	return privileges[p]
}

func (p Privilege) String() string {
	if info := p.Info(); info != nil {
		return info.Name
	}
	return "banned"
}

// ParsePrivilege parses a privilege name (case-insensitive).
func ParsePrivilege(s string) (Privilege, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for level, info := range privileges {
		if info.Name == s {
			return level, true
		}
	}
	return 0, false
}
