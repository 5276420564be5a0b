package launcher

import (
	"context"
	"time"

	"github.com/volley-protocol/volley-go/pkg/clock"
)

// Loop constants.
const (
	// DefaultTickInterval is the poll period of the control loop. It
	// bounds how late a deadline can be observed, so it must stay well
	// below the shortest configured duration.
	DefaultTickInterval = 5 * time.Millisecond

	// DefaultCommandBuffer is the submission queue length.
	DefaultCommandBuffer = 16
)

// LoopConfig holds control loop settings.
type LoopConfig struct {
	// TickInterval is the poll period. Zero means DefaultTickInterval.
	TickInterval time.Duration

	// CommandBuffer is the submission queue length. Zero means
	// DefaultCommandBuffer.
	CommandBuffer int
}

type submission struct {
	cmd  Command
	done chan struct{}
}

// Loop drives a Controller cooperatively: one iteration per tick
// services at most one pending command, then evaluates all three
// deadlines. Commands from any goroutine are funneled through Submit,
// so the controller is only ever mutated from the loop goroutine.
type Loop struct {
	ctrl *Controller
	clk  clock.Clock
	tick time.Duration
	subs chan submission
}

// NewLoop creates a loop for the given controller and clock.
func NewLoop(ctrl *Controller, clk clock.Clock, cfg LoopConfig) (*Loop, error) {
	if ctrl == nil {
		return nil, ErrNilController
	}
	if clk == nil {
		return nil, ErrNilClock
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = DefaultCommandBuffer
	}

	return &Loop{
		ctrl: ctrl,
		clk:  clk,
		tick: cfg.TickInterval,
		subs: make(chan submission, cfg.CommandBuffer),
	}, nil
}

// Run drives the loop until ctx is done, then returns nil. On exit the
// controller is driven to the rest state so the hardware is never left
// energized.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()
	defer l.ctrl.HandleCommand(CmdEmergencyStop, l.clk.Now())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := l.clk.Now()

			// At most one command per tick.
			select {
			case s := <-l.subs:
				l.ctrl.HandleCommand(s.cmd, now)
				if s.done != nil {
					close(s.done)
				}
			default:
			}

			l.ctrl.Tick(now)
		}
	}
}

// Submit queues cmd and returns once the loop has applied it, or when
// ctx is done. Invalid commands are rejected before they reach the
// queue.
func (l *Loop) Submit(ctx context.Context, cmd Command) error {
	if !cmd.IsValid() {
		return ErrInvalidCommand
	}

	done := make(chan struct{})
	select {
	case l.subs <- submission{cmd: cmd, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
