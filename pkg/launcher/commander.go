package launcher

import "context"

// Commander is the boundary every command surface drives the launcher
// through: the wire dispatcher, the web panel and the interactive
// console all issue the same five operations.
type Commander interface {
	// Fire queues a single shot.
	Fire(ctx context.Context) error

	// StartContinuous begins continuous fire.
	StartContinuous(ctx context.Context) error

	// StopContinuous ends continuous fire.
	StopContinuous(ctx context.Context) error

	// Halt stops motors and trigger immediately.
	Halt(ctx context.Context) error

	// Status returns the current launcher state.
	Status() State
}

// LoopCommander drives a launcher through its control loop. Commands
// are queued on the loop and each call returns once the loop has
// applied the command, so a Status read issued afterwards reflects it.
type LoopCommander struct {
	loop *Loop
	ctrl *Controller
}

// NewLoopCommander creates a commander for the given loop and the
// controller it drives.
func NewLoopCommander(loop *Loop, ctrl *Controller) (*LoopCommander, error) {
	if loop == nil {
		return nil, ErrNilLoop
	}
	if ctrl == nil {
		return nil, ErrNilController
	}
	return &LoopCommander{loop: loop, ctrl: ctrl}, nil
}

// Fire queues a single shot.
func (c *LoopCommander) Fire(ctx context.Context) error {
	return c.loop.Submit(ctx, CmdFireSingle)
}

// StartContinuous begins continuous fire.
func (c *LoopCommander) StartContinuous(ctx context.Context) error {
	return c.loop.Submit(ctx, CmdContinuousStart)
}

// StopContinuous ends continuous fire.
func (c *LoopCommander) StopContinuous(ctx context.Context) error {
	return c.loop.Submit(ctx, CmdContinuousStop)
}

// Halt stops motors and trigger immediately.
func (c *LoopCommander) Halt(ctx context.Context) error {
	return c.loop.Submit(ctx, CmdEmergencyStop)
}

// Status returns the current launcher state.
func (c *LoopCommander) Status() State {
	return c.ctrl.Snapshot()
}

var _ Commander = (*LoopCommander)(nil)
