package skill

// StatModifier is a flat bonus to one stat granted by an active effect.
// Modifiers on the same stat are summed; stacks multiply the value.
type StatModifier struct {
	Stat  string // model.StatStr ... model.StatMaxHP
	Value int32
}
