package launcher

import (
	"sync"
	"time"

	"github.com/volley-protocol/volley-go/pkg/clock"
)

// FireMode represents the controller's firing mode.
type FireMode uint8

const (
	// ModeIdle indicates motors stopped and no firing activity.
	ModeIdle FireMode = 0

	// ModeSingleShot indicates a one-shot cycle: motors running, one
	// trigger pulse, then an automatic return to idle when the motor
	// run timeout elapses. Transient by design.
	ModeSingleShot FireMode = 1

	// ModeContinuous indicates repeated shots at a fixed cadence. It
	// persists until an explicit stop; the motor run timeout does not
	// apply.
	ModeContinuous FireMode = 2
)

// String returns the fire mode name.
func (m FireMode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeSingleShot:
		return "SINGLE_SHOT"
	case ModeContinuous:
		return "CONTINUOUS"
	default:
		return "UNKNOWN"
	}
}

// Actuator is the hardware surface the controller drives. Calls are
// fire-and-forget and must not block. Implementations own all
// pin-level concerns and report hardware faults through their own
// channels; the controller is open-loop and never reads back.
type Actuator interface {
	// SetMotors drives both flywheel motors forward (true) or stops
	// them (false).
	SetMotors(on bool)

	// SetTriggerAngle moves the trigger servo to a position in
	// degrees. The controller only ever commands the configured rest
	// and fire positions.
	SetTriggerAngle(angle uint8)
}

// State is a point-in-time snapshot of the controller.
type State struct {
	Mode           FireMode
	MotorsRunning  bool
	TriggerPressed bool
	ShotCount      uint64
}

// Controller is the launcher's firing state machine. It owns the fire
// mode, the motor and trigger flags, and the deadline bookkeeping, and
// issues actuation as commands arrive and deadlines elapse.
//
// All mutation happens on a single goroutine (the Loop's); the
// internal lock exists so snapshot accessors can be called from
// transport and panel goroutines.
type Controller struct {
	mu  sync.RWMutex
	cfg Config
	act Actuator

	mode           FireMode
	motorsRunning  bool
	triggerPressed bool
	shotCount      uint64
	timers         TimerState

	onModeChange func(oldMode, newMode FireMode)
	onShot       func(count uint64)
	onTimer      func(timer Timer, transition TimerTransition, deadline time.Duration)
}

// timerEvent records a deadline transition for deferred callback delivery.
type timerEvent struct {
	timer      Timer
	transition TimerTransition
	deadline   time.Duration
}

// NewController creates a controller in the rest state and drives the
// hardware there (motors off, trigger at the rest angle). Zero config
// fields are filled with defaults.
func NewController(act Actuator, cfg Config) (*Controller, error) {
	if act == nil {
		return nil, ErrNilActuator
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:  cfg,
		act:  act,
		mode: ModeIdle,
	}
	c.act.SetMotors(false)
	c.act.SetTriggerAngle(cfg.TriggerRestAngle)
	return c, nil
}

// HandleCommand applies one pre-validated command at the given clock
// reading. Redundant commands (firing while already firing, stopping
// while idle) are silent no-ops. EmergencyStop is accepted from any
// state and takes effect immediately.
func (c *Controller) HandleCommand(cmd Command, now clock.Reading) {
	c.mu.Lock()

	oldMode := c.mode
	var fired []uint64
	var timers []timerEvent

	switch cmd {
	case CmdFireSingle:
		if c.mode != ModeIdle {
			break // already firing
		}
		c.startMotors()
		c.timers.ArmMotorTimeout(now)
		timers = append(timers, timerEvent{TimerMotorRun, TimerArmed, c.cfg.MotorRunTimeout})
		if c.pressTrigger(now) {
			fired = append(fired, c.shotCount)
			timers = append(timers, timerEvent{TimerTriggerPulse, TimerArmed, c.cfg.TriggerPulseDuration})
		}
		c.mode = ModeSingleShot

	case CmdContinuousStart:
		if c.mode == ModeContinuous {
			break // already in continuous fire
		}
		// A single-shot upgrade abandons the motor auto-stop.
		if c.timers.motorArmed {
			c.timers.DisarmMotorTimeout()
			timers = append(timers, timerEvent{TimerMotorRun, TimerDisarmed, 0})
		}
		c.startMotors()
		// First shot of the burst; the cadence timer spaces the rest.
		if c.pressTrigger(now) {
			fired = append(fired, c.shotCount)
			timers = append(timers, timerEvent{TimerTriggerPulse, TimerArmed, c.cfg.TriggerPulseDuration})
		}
		c.timers.ArmFireInterval(now)
		timers = append(timers, timerEvent{TimerFireInterval, TimerArmed, c.cfg.FireInterval})
		c.mode = ModeContinuous

	case CmdContinuousStop:
		if c.mode != ModeContinuous {
			break // stray stop
		}
		// An in-flight trigger pulse releases on its own deadline.
		c.stopMotors()
		c.timers.DisarmFireInterval()
		timers = append(timers, timerEvent{TimerFireInterval, TimerDisarmed, 0})
		c.mode = ModeIdle

	case CmdEmergencyStop:
		timers = c.armedDisarmEvents()
		c.stopMotors()
		c.releaseTrigger()
		c.timers.DisarmAll()
		c.mode = ModeIdle
	}

	newMode := c.mode
	modeFn := c.onModeChange
	shotFn := c.onShot
	timerFn := c.onTimer

	c.mu.Unlock()

	if modeFn != nil && oldMode != newMode {
		modeFn(oldMode, newMode)
	}
	if shotFn != nil {
		for _, n := range fired {
			shotFn(n)
		}
	}
	if timerFn != nil {
		for _, ev := range timers {
			timerFn(ev.timer, ev.transition, ev.deadline)
		}
	}
}

// armedDisarmEvents returns a Disarmed event for every armed deadline.
// Must be called with the lock held, before the deadlines are cleared.
func (c *Controller) armedDisarmEvents() []timerEvent {
	var evs []timerEvent
	if c.timers.motorArmed {
		evs = append(evs, timerEvent{TimerMotorRun, TimerDisarmed, 0})
	}
	if c.timers.pulseArmed {
		evs = append(evs, timerEvent{TimerTriggerPulse, TimerDisarmed, 0})
	}
	if c.timers.intervalArmed {
		evs = append(evs, timerEvent{TimerFireInterval, TimerDisarmed, 0})
	}
	return evs
}

// Tick evaluates every armed deadline against now, in a fixed order:
// trigger release, motor timeout, fire cadence. Each deadline is
// checked exactly once per tick regardless of what the others did.
func (c *Controller) Tick(now clock.Reading) {
	c.mu.Lock()

	oldMode := c.mode
	var fired []uint64
	var timers []timerEvent

	// Trigger release is orthogonal to the fire mode.
	if c.triggerPressed && c.timers.TriggerPulseElapsed(now, c.cfg.TriggerPulseDuration) {
		c.releaseTrigger()
		timers = append(timers, timerEvent{TimerTriggerPulse, TimerExpired, 0})
	}

	// The motor auto-stop guards single shots only; continuous fire
	// runs until explicitly stopped.
	if c.mode == ModeSingleShot && c.timers.MotorTimedOut(now, c.cfg.MotorRunTimeout) {
		c.stopMotors()
		c.timers.DisarmMotorTimeout()
		timers = append(timers, timerEvent{TimerMotorRun, TimerExpired, 0})
		c.mode = ModeIdle
	}

	// Continuous cadence. A due shot is skipped while the previous
	// pulse is still active; the reference resets only when a pulse
	// actually fires, so the skipped shot happens on the first tick
	// after release and spacing never drops below the interval.
	if c.mode == ModeContinuous && c.timers.FireIntervalElapsed(now, c.cfg.FireInterval) {
		if c.pressTrigger(now) {
			fired = append(fired, c.shotCount)
			timers = append(timers,
				timerEvent{TimerFireInterval, TimerExpired, 0},
				timerEvent{TimerTriggerPulse, TimerArmed, c.cfg.TriggerPulseDuration})
			c.timers.ArmFireInterval(now)
			timers = append(timers, timerEvent{TimerFireInterval, TimerArmed, c.cfg.FireInterval})
		}
	}

	newMode := c.mode
	modeFn := c.onModeChange
	shotFn := c.onShot
	timerFn := c.onTimer

	c.mu.Unlock()

	if modeFn != nil && oldMode != newMode {
		modeFn(oldMode, newMode)
	}
	if shotFn != nil {
		for _, n := range fired {
			shotFn(n)
		}
	}
	if timerFn != nil {
		for _, ev := range timers {
			timerFn(ev.timer, ev.transition, ev.deadline)
		}
	}
}

// startMotors drives both flywheels forward. No-op if already running.
func (c *Controller) startMotors() {
	if c.motorsRunning {
		return
	}
	c.motorsRunning = true
	c.act.SetMotors(true)
}

// stopMotors stops both flywheels. No-op if already stopped.
func (c *Controller) stopMotors() {
	if !c.motorsRunning {
		return
	}
	c.motorsRunning = false
	c.act.SetMotors(false)
}

// pressTrigger commands the fire position, arms the release deadline,
// and counts the shot. Returns false without actuating while the
// previous pulse is still active: overlapping pulses are never issued.
func (c *Controller) pressTrigger(now clock.Reading) bool {
	if c.triggerPressed {
		return false
	}
	c.triggerPressed = true
	c.timers.ArmTriggerPulse(now)
	c.shotCount++
	c.act.SetTriggerAngle(c.cfg.TriggerFireAngle)
	return true
}

// releaseTrigger commands the rest position and disarms the release
// deadline. No-op if already released.
func (c *Controller) releaseTrigger() {
	if !c.triggerPressed {
		return
	}
	c.triggerPressed = false
	c.timers.DisarmTriggerPulse()
	c.act.SetTriggerAngle(c.cfg.TriggerRestAngle)
}

// Mode returns the current fire mode.
func (c *Controller) Mode() FireMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// MotorsRunning returns true while the flywheels are commanded on.
func (c *Controller) MotorsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.motorsRunning
}

// TriggerPressed returns true while a trigger pulse is active.
func (c *Controller) TriggerPressed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.triggerPressed
}

// ShotCount returns the number of trigger pulses issued since start.
func (c *Controller) ShotCount() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shotCount
}

// Snapshot returns a consistent view of the controller state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Mode:           c.mode,
		MotorsRunning:  c.motorsRunning,
		TriggerPressed: c.triggerPressed,
		ShotCount:      c.shotCount,
	}
}

// Config returns the timings and servo positions in use.
func (c *Controller) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// OnModeChange sets a callback invoked after every mode transition.
// Called outside the controller lock.
func (c *Controller) OnModeChange(fn func(oldMode, newMode FireMode)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onModeChange = fn
}

// OnShot sets a callback invoked after every trigger pulse with the
// running shot count. Called outside the controller lock.
func (c *Controller) OnShot(fn func(count uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onShot = fn
}

// OnTimer sets a callback invoked after every deadline transition.
// The deadline argument carries the armed duration on TimerArmed and is
// zero otherwise. Called outside the controller lock.
func (c *Controller) OnTimer(fn func(timer Timer, transition TimerTransition, deadline time.Duration)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTimer = fn
}
