package launcher

import (
	"context"
	"errors"
	"testing"
	"time"
)

func startTestCommander(t *testing.T) (*LoopCommander, *Controller) {
	t.Helper()

	loop, ctrl, _, _ := startTestLoop(t)
	cmdr, err := NewLoopCommander(loop, ctrl)
	if err != nil {
		t.Fatalf("NewLoopCommander() error = %v", err)
	}
	return cmdr, ctrl
}

func TestLoopCommanderFire(t *testing.T) {
	cmdr, ctrl := startTestCommander(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := cmdr.Fire(ctx); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}

	// Fire returns after the loop applied the command.
	if got := ctrl.ShotCount(); got != 1 {
		t.Errorf("ShotCount() = %d, want 1", got)
	}
	if got := cmdr.Status().Mode; got != ModeSingleShot {
		t.Errorf("Status().Mode = %v, want %v", got, ModeSingleShot)
	}
}

func TestLoopCommanderContinuous(t *testing.T) {
	cmdr, _ := startTestCommander(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := cmdr.StartContinuous(ctx); err != nil {
		t.Fatalf("StartContinuous() error = %v", err)
	}
	state := cmdr.Status()
	if state.Mode != ModeContinuous {
		t.Errorf("Status().Mode = %v, want %v", state.Mode, ModeContinuous)
	}
	if !state.MotorsRunning {
		t.Error("motors off in continuous mode")
	}

	if err := cmdr.StopContinuous(ctx); err != nil {
		t.Fatalf("StopContinuous() error = %v", err)
	}
	state = cmdr.Status()
	if state.Mode != ModeIdle {
		t.Errorf("Status().Mode = %v, want %v", state.Mode, ModeIdle)
	}
	if state.MotorsRunning {
		t.Error("motors still on after StopContinuous")
	}
}

func TestLoopCommanderHalt(t *testing.T) {
	cmdr, _ := startTestCommander(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := cmdr.StartContinuous(ctx); err != nil {
		t.Fatalf("StartContinuous() error = %v", err)
	}
	if err := cmdr.Halt(ctx); err != nil {
		t.Fatalf("Halt() error = %v", err)
	}

	state := cmdr.Status()
	if state.Mode != ModeIdle {
		t.Errorf("Status().Mode = %v, want %v", state.Mode, ModeIdle)
	}
	if state.MotorsRunning || state.TriggerPressed {
		t.Errorf("Halt left hardware energized: motors=%v trigger=%v",
			state.MotorsRunning, state.TriggerPressed)
	}
}

func TestNewLoopCommanderValidation(t *testing.T) {
	loop, ctrl, _, _ := startTestLoop(t)

	if _, err := NewLoopCommander(nil, ctrl); !errors.Is(err, ErrNilLoop) {
		t.Errorf("NewLoopCommander(nil loop) error = %v, want %v", err, ErrNilLoop)
	}
	if _, err := NewLoopCommander(loop, nil); !errors.Is(err, ErrNilController) {
		t.Errorf("NewLoopCommander(nil ctrl) error = %v, want %v", err, ErrNilController)
	}
}
