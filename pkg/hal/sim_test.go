package hal

import (
	"testing"
)

func TestSimulatorRecordsInOrder(t *testing.T) {
	s := NewSimulator()

	s.SetMotors(true)
	s.SetTriggerAngle(180)
	s.SetTriggerAngle(90)
	s.SetMotors(false)

	want := []Event{
		{Kind: EventMotors, On: true},
		{Kind: EventTrigger, Angle: 180},
		{Kind: EventTrigger, Angle: 90},
		{Kind: EventMotors, On: false},
	}

	got := s.Events()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSimulatorState(t *testing.T) {
	s := NewSimulator()

	if s.MotorsOn() {
		t.Error("MotorsOn() = true before any command")
	}

	s.SetMotors(true)
	s.SetTriggerAngle(180)

	if !s.MotorsOn() {
		t.Error("MotorsOn() = false, want true")
	}
	if got := s.TriggerAngle(); got != 180 {
		t.Errorf("TriggerAngle() = %d, want 180", got)
	}
}

func TestSimulatorOnEvent(t *testing.T) {
	s := NewSimulator()

	var seen []Event
	s.OnEvent(func(ev Event) {
		seen = append(seen, ev)
	})

	s.SetMotors(true)
	s.SetTriggerAngle(45)

	if len(seen) != 2 {
		t.Fatalf("callback saw %d events, want 2", len(seen))
	}
	if seen[0].Kind != EventMotors || seen[1].Angle != 45 {
		t.Errorf("callback events = %+v", seen)
	}
}

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventMotors, "MOTORS"},
		{EventTrigger, "TRIGGER"},
		{EventKind(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
