// Package clock provides monotonic clock readings for the launcher's
// timed state machine. All deadline logic works on Reading values
// obtained through the Clock interface, so tests can drive the core
// with a Manual clock instead of real time.
package clock

import (
	"sync"
	"time"
)

// Reading is a monotonically increasing duration since an arbitrary
// start point, used only for subtraction. The underlying nanosecond
// count covers roughly 292 years, so wraparound is not a concern for
// any plausible uptime.
type Reading time.Duration

// Since returns the time elapsed between an earlier reading and r.
// Both readings must come from the same Clock.
func (r Reading) Since(earlier Reading) time.Duration {
	return time.Duration(r - earlier)
}

// Clock produces monotonic readings.
type Clock interface {
	// Now returns the current reading. Successive calls never return
	// a smaller value.
	Now() Reading
}

// SystemClock reads the process's monotonic clock. Readings count from
// the moment the clock was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock whose readings start at zero now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns the duration since the clock was created. time.Since
// uses the monotonic component of start, so wall-clock adjustments do
// not affect readings.
func (c *SystemClock) Now() Reading {
	return Reading(time.Since(c.start))
}

// Manual is a clock driven explicitly via Advance and Set, for tests.
// Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now Reading
}

// NewManual creates a manual clock starting at reading zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the current reading.
func (m *Manual) Now() Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d. Negative values are ignored;
// a manual clock never runs backwards.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now += Reading(d)
	m.mu.Unlock()
}

// Set jumps the clock to r. Readings behind the current one are
// ignored.
func (m *Manual) Set(r Reading) {
	m.mu.Lock()
	if r > m.now {
		m.now = r
	}
	m.mu.Unlock()
}

// Interface checks.
var (
	_ Clock = (*SystemClock)(nil)
	_ Clock = (*Manual)(nil)
)
