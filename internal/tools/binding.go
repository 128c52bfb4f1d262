package tools

// Input is a pointer input a tool can be bound to.
type Input int

const (
	InputPrimary Input = iota // primary (left) mouse button
	InputWheel                // scroll wheel
)

func (i Input) String() string {
	switch i {
	case InputPrimary:
		return "Primary"
	case InputWheel:
		return "Wheel"
	default:
		return "Unknown"
	}
}

// bindingTable lists tools that bind more than the primary button.
var bindingTable = map[Name][]Input{
	WindowLevel: {InputPrimary, InputWheel},
}

// BindingsFor returns the inputs a tool claims when it is selected.
func BindingsFor(n Name) []Input {
	if b, ok := bindingTable[n]; ok {
		out := make([]Input, len(b))
		copy(out, b)
		return out
	}
	return []Input{InputPrimary}
}

// Mode is the activation state of a tool within a group.
type Mode int

const (
	ModeDisabled Mode = iota // not rendered, not interactive
	ModePassive              // annotations render and can be edited, no new ones
	ModeEnabled              // renders, never handles input
	ModeActive               // handles its bound inputs
)

func (m Mode) String() string {
	switch m {
	case ModePassive:
		return "Passive"
	case ModeEnabled:
		return "Enabled"
	case ModeActive:
		return "Active"
	default:
		return "Disabled"
	}
}
