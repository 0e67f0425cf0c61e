package model

// Mobile is a non-player character. A mobile may carry a command trigger
// script that intercepts input from actors in its room.
type Mobile struct {
	*Character

	trigger string
}

// NewMobile creates a mobile with PrivilegeGuest.
func NewMobile(cfg CharacterConfig) *Mobile {
	m := &Mobile{Character: newCharacter(cfg, RoleMobile)}
	m.privilege = PrivilegeGuest
	m.mobile = m
	return m
}

// Trigger returns the name of the attached trigger script ("" if none).
func (m *Mobile) Trigger() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trigger
}

// SetTrigger attaches a trigger script by name.
func (m *Mobile) SetTrigger(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trigger = name
}

// HasTrigger reports whether the mobile intercepts commands.
func (m *Mobile) HasTrigger() bool {
	return m.Trigger() != ""
}
