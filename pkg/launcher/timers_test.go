package launcher

import (
	"testing"
	"time"

	"github.com/volley-protocol/volley-go/pkg/clock"
)

func TestTimerStateDisarmedByDefault(t *testing.T) {
	var ts TimerState
	now := clock.Reading(time.Hour)

	if ts.MotorTimedOut(now, time.Nanosecond) {
		t.Error("MotorTimedOut() = true while disarmed")
	}
	if ts.TriggerPulseElapsed(now, time.Nanosecond) {
		t.Error("TriggerPulseElapsed() = true while disarmed")
	}
	if ts.FireIntervalElapsed(now, time.Nanosecond) {
		t.Error("FireIntervalElapsed() = true while disarmed")
	}
}

func TestTimerStateElapsedBoundary(t *testing.T) {
	var ts TimerState
	start := clock.Reading(100 * time.Millisecond)
	ts.ArmMotorTimeout(start)

	tests := []struct {
		name string
		now  clock.Reading
		want bool
	}{
		{"before deadline", start + clock.Reading(1999*time.Millisecond), false},
		{"exactly at deadline", start + clock.Reading(2000*time.Millisecond), true},
		{"after deadline", start + clock.Reading(2001*time.Millisecond), true},
		{"zero elapsed", start, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ts.MotorTimedOut(tt.now, 2*time.Second); got != tt.want {
				t.Errorf("MotorTimedOut(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestTimerStateIndependentDeadlines(t *testing.T) {
	var ts TimerState

	ts.ArmMotorTimeout(clock.Reading(0))
	ts.ArmTriggerPulse(clock.Reading(50 * time.Millisecond))
	ts.ArmFireInterval(clock.Reading(100 * time.Millisecond))

	now := clock.Reading(260 * time.Millisecond)

	// 260ms since motor arm: not out at 2s.
	if ts.MotorTimedOut(now, 2*time.Second) {
		t.Error("MotorTimedOut() = true, want false")
	}
	// 210ms since pulse arm: elapsed at 200ms.
	if !ts.TriggerPulseElapsed(now, 200*time.Millisecond) {
		t.Error("TriggerPulseElapsed() = false, want true")
	}
	// 160ms since interval arm: not elapsed at 500ms.
	if ts.FireIntervalElapsed(now, 500*time.Millisecond) {
		t.Error("FireIntervalElapsed() = true, want false")
	}
}

func TestTimerStateRearm(t *testing.T) {
	var ts TimerState

	ts.ArmFireInterval(clock.Reading(0))
	now := clock.Reading(500 * time.Millisecond)
	if !ts.FireIntervalElapsed(now, 500*time.Millisecond) {
		t.Fatal("FireIntervalElapsed() = false, want true")
	}

	// Re-arming moves the reference forward.
	ts.ArmFireInterval(now)
	if ts.FireIntervalElapsed(now, 500*time.Millisecond) {
		t.Error("FireIntervalElapsed() = true right after re-arm")
	}
	if !ts.FireIntervalElapsed(now+clock.Reading(500*time.Millisecond), 500*time.Millisecond) {
		t.Error("FireIntervalElapsed() = false one interval after re-arm")
	}
}

func TestTimerStateDisarm(t *testing.T) {
	var ts TimerState
	now := clock.Reading(time.Second)

	ts.ArmMotorTimeout(0)
	ts.ArmTriggerPulse(0)
	ts.ArmFireInterval(0)

	ts.DisarmTriggerPulse()
	if ts.TriggerPulseElapsed(now, time.Millisecond) {
		t.Error("TriggerPulseElapsed() = true after disarm")
	}
	if !ts.MotorTimedOut(now, time.Millisecond) {
		t.Error("MotorTimedOut() = false, want true (other deadlines unaffected)")
	}

	ts.DisarmAll()
	if ts.MotorTimedOut(now, time.Millisecond) {
		t.Error("MotorTimedOut() = true after DisarmAll")
	}
	if ts.FireIntervalElapsed(now, time.Millisecond) {
		t.Error("FireIntervalElapsed() = true after DisarmAll")
	}
}
