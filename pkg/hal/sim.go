package hal

import (
	"sync"

	"github.com/volley-protocol/volley-go/pkg/launcher"
)

// EventKind distinguishes simulator actuations.
type EventKind uint8

const (
	// EventMotors is a flywheel on/off command.
	EventMotors EventKind = 1

	// EventTrigger is a trigger servo position command.
	EventTrigger EventKind = 2
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventMotors:
		return "MOTORS"
	case EventTrigger:
		return "TRIGGER"
	default:
		return "UNKNOWN"
	}
}

// Event is one recorded actuation.
type Event struct {
	Kind EventKind

	// On is the motor command (Kind == EventMotors).
	On bool

	// Angle is the servo position in degrees (Kind == EventTrigger).
	Angle uint8
}

// Simulator implements the actuation surface in memory. It records
// every call in order and keeps the current output state, so tests and
// the sim HAL mode can observe exactly what the controller commanded.
// Safe for concurrent use.
type Simulator struct {
	mu       sync.Mutex
	motorsOn bool
	angle    uint8
	events   []Event
	onEvent  func(Event)
}

// NewSimulator creates a simulator with all outputs at rest.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// SetMotors records a flywheel command.
func (s *Simulator) SetMotors(on bool) {
	s.record(Event{Kind: EventMotors, On: on}, func() {
		s.motorsOn = on
	})
}

// SetTriggerAngle records a servo command.
func (s *Simulator) SetTriggerAngle(angle uint8) {
	s.record(Event{Kind: EventTrigger, Angle: angle}, func() {
		s.angle = angle
	})
}

func (s *Simulator) record(ev Event, apply func()) {
	s.mu.Lock()
	apply()
	s.events = append(s.events, ev)
	fn := s.onEvent
	s.mu.Unlock()

	if fn != nil {
		fn(ev)
	}
}

// MotorsOn returns the last commanded motor state.
func (s *Simulator) MotorsOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.motorsOn
}

// TriggerAngle returns the last commanded servo position.
func (s *Simulator) TriggerAngle() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

// Events returns a copy of the recorded actuations in order.
func (s *Simulator) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// OnEvent sets a callback invoked after each recorded actuation,
// outside the simulator lock.
func (s *Simulator) OnEvent(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = fn
}

var _ launcher.Actuator = (*Simulator)(nil)
