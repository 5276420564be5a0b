package launcher

import "testing"

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CmdFireSingle, "FireSingle"},
		{CmdContinuousStart, "ContinuousStart"},
		{CmdContinuousStop, "ContinuousStop"},
		{CmdEmergencyStop, "EmergencyStop"},
		{Command(0), "Unknown"},
		{Command(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("Command(%d).String() = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestCommandIsValid(t *testing.T) {
	for cmd := CmdFireSingle; cmd <= CmdEmergencyStop; cmd++ {
		if !cmd.IsValid() {
			t.Errorf("Command(%d).IsValid() = false, want true", cmd)
		}
	}
	if Command(0).IsValid() {
		t.Error("Command(0).IsValid() = true, want false")
	}
	if Command(5).IsValid() {
		t.Error("Command(5).IsValid() = true, want false")
	}
}

func TestFireModeString(t *testing.T) {
	tests := []struct {
		mode FireMode
		want string
	}{
		{ModeIdle, "IDLE"},
		{ModeSingleShot, "SINGLE_SHOT"},
		{ModeContinuous, "CONTINUOUS"},
		{FireMode(7), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("FireMode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
