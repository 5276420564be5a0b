package launcher

import (
	"errors"
	"time"
)

// Timing defaults.
const (
	// DefaultMotorRunTimeout stops the flywheels this long after a
	// single shot if no follow-up command arrives.
	DefaultMotorRunTimeout = 2 * time.Second

	// DefaultTriggerPulseDuration is how long the servo holds the fire
	// position before returning to rest.
	DefaultTriggerPulseDuration = 200 * time.Millisecond

	// DefaultFireInterval is the spacing between shots in continuous
	// mode.
	DefaultFireInterval = 500 * time.Millisecond

	// DefaultTriggerRestAngle is the servo rest position in degrees.
	DefaultTriggerRestAngle uint8 = 90

	// DefaultTriggerFireAngle is the servo fire position in degrees.
	DefaultTriggerFireAngle uint8 = 180

	// MaxServoAngle is the largest position a hobby servo accepts.
	MaxServoAngle uint8 = 180
)

// Launcher errors.
var (
	ErrInvalidDuration = errors.New("launcher durations must be positive")
	ErrPulseTooLong    = errors.New("trigger pulse must be shorter than the fire interval and the motor run timeout")
	ErrInvalidAngle    = errors.New("servo angles must be distinct and at most 180 degrees")
	ErrNilActuator     = errors.New("actuator must not be nil")
	ErrNilController   = errors.New("controller must not be nil")
	ErrNilClock        = errors.New("clock must not be nil")
	ErrNilLoop         = errors.New("loop must not be nil")
	ErrInvalidCommand  = errors.New("invalid launcher command")
)

// Config holds the launcher timings and servo positions.
type Config struct {
	// MotorRunTimeout is the fail-safe: stop the flywheels this long
	// after a single shot. It never applies in continuous mode.
	MotorRunTimeout time.Duration `yaml:"motor_run_timeout"`

	// TriggerPulseDuration is how long the trigger servo holds the
	// fire position.
	TriggerPulseDuration time.Duration `yaml:"trigger_pulse_duration"`

	// FireInterval is the spacing between shots in continuous mode.
	FireInterval time.Duration `yaml:"fire_interval"`

	// TriggerRestAngle and TriggerFireAngle are the two logical servo
	// positions in degrees.
	TriggerRestAngle uint8 `yaml:"trigger_rest_angle"`
	TriggerFireAngle uint8 `yaml:"trigger_fire_angle"`
}

// applyDefaults fills zero fields with the package defaults.
func (c *Config) applyDefaults() {
	if c.MotorRunTimeout == 0 {
		c.MotorRunTimeout = DefaultMotorRunTimeout
	}
	if c.TriggerPulseDuration == 0 {
		c.TriggerPulseDuration = DefaultTriggerPulseDuration
	}
	if c.FireInterval == 0 {
		c.FireInterval = DefaultFireInterval
	}
	if c.TriggerRestAngle == 0 && c.TriggerFireAngle == 0 {
		c.TriggerRestAngle = DefaultTriggerRestAngle
		c.TriggerFireAngle = DefaultTriggerFireAngle
	}
}

// Validate checks the configuration for values the state machine
// cannot operate with.
func (c Config) Validate() error {
	if c.MotorRunTimeout <= 0 || c.TriggerPulseDuration <= 0 || c.FireInterval <= 0 {
		return ErrInvalidDuration
	}
	// A pulse at least as long as the fire interval could never
	// release between shots; one at least as long as the motor timeout
	// would outlive its own shot cycle.
	if c.TriggerPulseDuration >= c.FireInterval || c.TriggerPulseDuration >= c.MotorRunTimeout {
		return ErrPulseTooLong
	}
	if c.TriggerRestAngle > MaxServoAngle || c.TriggerFireAngle > MaxServoAngle {
		return ErrInvalidAngle
	}
	if c.TriggerRestAngle == c.TriggerFireAngle {
		return ErrInvalidAngle
	}
	return nil
}
