package wire

// Action represents a VOLLEY protocol action.
// Each action maps to exactly one launcher command surface.
type Action uint8

const (
	// ActionFire fires a single shot. Carries no argument.
	ActionFire Action = 1

	// ActionContinuous starts or stops continuous fire.
	// Requires a mode argument: "start" or "stop".
	ActionContinuous Action = 2

	// ActionHalt is the emergency stop. Always accepted.
	ActionHalt Action = 3

	// ActionStatus reads the launcher state without changing it.
	ActionStatus Action = 4
)

// Mode argument values for ActionContinuous.
const (
	ModeStart = "start"
	ModeStop  = "stop"
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionFire:
		return "Fire"
	case ActionContinuous:
		return "Continuous"
	case ActionHalt:
		return "Halt"
	case ActionStatus:
		return "Status"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the action is a valid VOLLEY action.
func (a Action) IsValid() bool {
	return a >= ActionFire && a <= ActionStatus
}

// RequiresMode returns true if the action needs a mode argument.
func (a Action) RequiresMode() bool {
	return a == ActionContinuous
}
