package clock

import (
	"testing"
	"time"
)

func TestReadingSince(t *testing.T) {
	earlier := Reading(100 * time.Millisecond)
	later := Reading(350 * time.Millisecond)

	if got := later.Since(earlier); got != 250*time.Millisecond {
		t.Errorf("Since() = %v, want 250ms", got)
	}
	if got := later.Since(later); got != 0 {
		t.Errorf("Since(self) = %v, want 0", got)
	}
}

func TestManualAdvance(t *testing.T) {
	c := NewManual()

	if got := c.Now(); got != 0 {
		t.Errorf("initial Now() = %v, want 0", got)
	}

	c.Advance(250 * time.Millisecond)
	if got := c.Now(); got != Reading(250*time.Millisecond) {
		t.Errorf("Now() = %v, want 250ms", got)
	}

	// Negative advances are ignored.
	c.Advance(-time.Second)
	if got := c.Now(); got != Reading(250*time.Millisecond) {
		t.Errorf("Now() after negative advance = %v, want 250ms", got)
	}
}

func TestManualSet(t *testing.T) {
	c := NewManual()

	c.Set(Reading(time.Second))
	if got := c.Now(); got != Reading(time.Second) {
		t.Errorf("Now() = %v, want 1s", got)
	}

	// Setting backwards is ignored.
	c.Set(Reading(100 * time.Millisecond))
	if got := c.Now(); got != Reading(time.Second) {
		t.Errorf("Now() after backwards Set = %v, want 1s", got)
	}
}

func TestSystemClockIncreases(t *testing.T) {
	c := NewSystemClock()

	a := c.Now()
	time.Sleep(5 * time.Millisecond)
	b := c.Now()

	if b <= a {
		t.Errorf("Now() not increasing: %v then %v", a, b)
	}
}

func TestSystemClockStartsNearZero(t *testing.T) {
	got := NewSystemClock().Now()

	if got < 0 || got > Reading(time.Second) {
		t.Errorf("first Now() = %v, want a reading measured from creation", time.Duration(got))
	}
}
