package launcher

// Command is one of the four external commands the controller accepts.
// Raw input (wire requests, panel requests, console lines) is mapped
// and validated at the surface boundary; the controller only ever sees
// these values.
type Command uint8

const (
	// CmdFireSingle runs the flywheels, pulses the trigger once, and
	// self-stops after the motor run timeout.
	CmdFireSingle Command = 1

	// CmdContinuousStart begins continuous fire: motors on, one shot
	// immediately, then one per fire interval until stopped.
	CmdContinuousStart Command = 2

	// CmdContinuousStop ends continuous fire and stops the motors.
	CmdContinuousStop Command = 3

	// CmdEmergencyStop stops the motors and releases the trigger
	// immediately, from any state.
	CmdEmergencyStop Command = 4
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdFireSingle:
		return "FireSingle"
	case CmdContinuousStart:
		return "ContinuousStart"
	case CmdContinuousStop:
		return "ContinuousStop"
	case CmdEmergencyStop:
		return "EmergencyStop"
	default:
		return "Unknown"
	}
}

// IsValid returns true if c is one of the four launcher commands.
func (c Command) IsValid() bool {
	return c >= CmdFireSingle && c <= CmdEmergencyStop
}
