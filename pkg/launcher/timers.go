package launcher

import (
	"time"

	"github.com/volley-protocol/volley-go/pkg/clock"
)

// TimerState tracks the armed reference points for the three
// independent deadlines the controller polls: motor auto-stop, trigger
// pulse release, and continuous-fire cadence.
//
// Arming records the current clock reading. The elapsed queries are
// pure functions of a later reading and a duration; they return false
// while the deadline is disarmed and have no side effects, so the same
// reading can be asked about all three deadlines in one tick.
type TimerState struct {
	motorRef      clock.Reading
	motorArmed    bool
	pulseRef      clock.Reading
	pulseArmed    bool
	intervalRef   clock.Reading
	intervalArmed bool
}

// ArmMotorTimeout records now as the motor-start reference.
func (t *TimerState) ArmMotorTimeout(now clock.Reading) {
	t.motorRef = now
	t.motorArmed = true
}

// MotorTimedOut reports whether timeout has elapsed since the motor
// timer was armed. False while disarmed.
func (t *TimerState) MotorTimedOut(now clock.Reading, timeout time.Duration) bool {
	return t.motorArmed && now.Since(t.motorRef) >= timeout
}

// DisarmMotorTimeout clears the motor deadline.
func (t *TimerState) DisarmMotorTimeout() {
	t.motorArmed = false
}

// ArmTriggerPulse records now as the trigger-press reference.
func (t *TimerState) ArmTriggerPulse(now clock.Reading) {
	t.pulseRef = now
	t.pulseArmed = true
}

// TriggerPulseElapsed reports whether pulse has elapsed since the
// trigger timer was armed. False while disarmed.
func (t *TimerState) TriggerPulseElapsed(now clock.Reading, pulse time.Duration) bool {
	return t.pulseArmed && now.Since(t.pulseRef) >= pulse
}

// DisarmTriggerPulse clears the trigger deadline. Used on release,
// including an early release by an emergency stop.
func (t *TimerState) DisarmTriggerPulse() {
	t.pulseArmed = false
}

// ArmFireInterval records now as the last-fire reference.
func (t *TimerState) ArmFireInterval(now clock.Reading) {
	t.intervalRef = now
	t.intervalArmed = true
}

// FireIntervalElapsed reports whether interval has elapsed since the
// last shot. False while disarmed.
func (t *TimerState) FireIntervalElapsed(now clock.Reading, interval time.Duration) bool {
	return t.intervalArmed && now.Since(t.intervalRef) >= interval
}

// DisarmFireInterval clears the cadence deadline.
func (t *TimerState) DisarmFireInterval() {
	t.intervalArmed = false
}

// DisarmAll clears all three deadlines at once.
func (t *TimerState) DisarmAll() {
	t.motorArmed = false
	t.pulseArmed = false
	t.intervalArmed = false
}

// Timer identifies one of the controller's deadlines in observer
// callbacks.
type Timer uint8

const (
	// TimerMotorRun is the single-shot motor auto-stop deadline.
	TimerMotorRun Timer = 0
	// TimerTriggerPulse is the trigger release deadline.
	TimerTriggerPulse Timer = 1
	// TimerFireInterval is the continuous-fire cadence deadline.
	TimerFireInterval Timer = 2
)

// String returns the timer name.
func (t Timer) String() string {
	switch t {
	case TimerMotorRun:
		return "MOTOR_RUN"
	case TimerTriggerPulse:
		return "TRIGGER_PULSE"
	case TimerFireInterval:
		return "FIRE_INTERVAL"
	default:
		return "UNKNOWN"
	}
}

// TimerTransition describes what happened to a deadline.
type TimerTransition uint8

const (
	// TimerArmed means the deadline was set.
	TimerArmed TimerTransition = 0
	// TimerExpired means the deadline elapsed and its action ran.
	TimerExpired TimerTransition = 1
	// TimerDisarmed means the deadline was cancelled before expiry.
	TimerDisarmed TimerTransition = 2
)

// String returns the transition name.
func (t TimerTransition) String() string {
	switch t {
	case TimerArmed:
		return "ARMED"
	case TimerExpired:
		return "EXPIRED"
	case TimerDisarmed:
		return "DISARMED"
	default:
		return "UNKNOWN"
	}
}
