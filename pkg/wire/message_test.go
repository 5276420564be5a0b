package wire

import (
	"testing"
)

func TestActionString(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionFire, "Fire"},
		{ActionContinuous, "Continuous"},
		{ActionHalt, "Halt"},
		{ActionStatus, "Status"},
		{Action(0), "Unknown"},
		{Action(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.action.String(); got != tt.want {
			t.Errorf("Action(%d).String() = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestActionIsValid(t *testing.T) {
	for a := ActionFire; a <= ActionStatus; a++ {
		if !a.IsValid() {
			t.Errorf("Action(%d) should be valid", a)
		}
	}
	if Action(0).IsValid() {
		t.Errorf("Action(0) should be invalid")
	}
	if Action(5).IsValid() {
		t.Errorf("Action(5) should be invalid")
	}
}

func TestActionRequiresMode(t *testing.T) {
	if !ActionContinuous.RequiresMode() {
		t.Errorf("Continuous should require a mode")
	}
	for _, a := range []Action{ActionFire, ActionHalt, ActionStatus} {
		if a.RequiresMode() {
			t.Errorf("%v should not require a mode", a)
		}
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusSuccess, "SUCCESS"},
		{StatusInvalidAction, "INVALID_ACTION"},
		{StatusMissingParameter, "MISSING_PARAMETER"},
		{StatusInvalidParameter, "INVALID_PARAMETER"},
		{StatusMalformedRequest, "MALFORMED_REQUEST"},
		{Status(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusSuccess(t *testing.T) {
	if !StatusSuccess.IsSuccess() {
		t.Errorf("StatusSuccess.IsSuccess() should be true")
	}
	if StatusSuccess.IsError() {
		t.Errorf("StatusSuccess.IsError() should be false")
	}
	if StatusInvalidAction.IsSuccess() {
		t.Errorf("StatusInvalidAction.IsSuccess() should be false")
	}
	if !StatusMalformedRequest.IsError() {
		t.Errorf("StatusMalformedRequest.IsError() should be true")
	}
}

func TestMessageTypeString(t *testing.T) {
	tests := []struct {
		mt   MessageType
		want string
	}{
		{MessageTypeRequest, "REQUEST"},
		{MessageTypeResponse, "RESPONSE"},
		{MessageTypeNotification, "NOTIFICATION"},
		{MessageTypePing, "PING"},
		{MessageTypePong, "PONG"},
		{MessageTypeClose, "CLOSE"},
		{MessageTypeUnknown, "UNKNOWN"},
		{MessageType(200), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.mt.String(); got != tt.want {
			t.Errorf("MessageType(%d).String() = %q, want %q", tt.mt, got, tt.want)
		}
	}
}

func TestMessageTypeIsControl(t *testing.T) {
	control := []MessageType{MessageTypePing, MessageTypePong, MessageTypeClose}
	for _, mt := range control {
		if !mt.IsControl() {
			t.Errorf("%v should be a control type", mt)
		}
	}
	data := []MessageType{MessageTypeRequest, MessageTypeResponse, MessageTypeNotification}
	for _, mt := range data {
		if mt.IsControl() {
			t.Errorf("%v should not be a control type", mt)
		}
	}
}

// The acknowledgement texts are displayed verbatim by remotes; any change
// here is a user-visible protocol change.
func TestAcknowledgementTexts(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{TextSingleFire, "SINGLE FIRE!"},
		{TextContinuousStarted, "CONTINUOUS FIRE STARTED"},
		{TextContinuousStopped, "CONTINUOUS FIRE STOPPED"},
		{TextStopped, "STOPPED"},
		{TextMissingMode, "Missing mode parameter"},
		{TextInvalidMode, "Invalid mode parameter"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("acknowledgement text %q, want %q", tt.got, tt.want)
		}
	}
}
