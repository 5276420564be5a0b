package wire

import (
	"fmt"
)

// CBOR map keys for message encoding.
// All VOLLEY messages use integer keys for efficiency.
const (
	// KeyType is the envelope key carried by every message.
	KeyType = 0

	// Common message keys
	KeyMessageID      = 1
	KeyActionOrStatus = 2 // Action (request) or Status (response)
	KeyModeOrText     = 3 // Mode argument (request) or acknowledgement text (response)
	KeyState          = 4 // LauncherState (response and notification)

	// Control message keys
	KeyTimestamp = 1 // ping/pong
	KeyReason    = 1 // close
)

// MessageID 0 is reserved to indicate a notification message.
const NotificationMessageID uint32 = 0

// MessageType identifies a message in the envelope (key 0).
type MessageType uint8

const (
	// MessageTypeUnknown is the zero value; never valid on the wire.
	MessageTypeUnknown MessageType = 0

	// MessageTypeRequest is a command from a remote to the launcher.
	MessageTypeRequest MessageType = 1

	// MessageTypeResponse is the launcher's reply to a request.
	MessageTypeResponse MessageType = 2

	// MessageTypeNotification is an unsolicited state push from the launcher.
	MessageTypeNotification MessageType = 3

	// MessageTypePing checks connection liveness.
	MessageTypePing MessageType = 4

	// MessageTypePong is the response to a ping.
	MessageTypePong MessageType = 5

	// MessageTypeClose initiates graceful connection close.
	MessageTypeClose MessageType = 6
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	case MessageTypeNotification:
		return "NOTIFICATION"
	case MessageTypePing:
		return "PING"
	case MessageTypePong:
		return "PONG"
	case MessageTypeClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true if the type is a known VOLLEY message type.
func (t MessageType) IsValid() bool {
	return t >= MessageTypeRequest && t <= MessageTypeClose
}

// IsControl returns true for transport-level control messages (ping/pong/close).
func (t MessageType) IsControl() bool {
	return t >= MessageTypePing && t <= MessageTypeClose
}

// Acknowledgement texts returned verbatim in responses. Remotes and the
// control panel display these as-is.
const (
	TextSingleFire        = "SINGLE FIRE!"
	TextContinuousStarted = "CONTINUOUS FIRE STARTED"
	TextContinuousStopped = "CONTINUOUS FIRE STOPPED"
	TextStopped           = "STOPPED"
	TextMissingMode       = "Missing mode parameter"
	TextInvalidMode       = "Invalid mode parameter"
)

// Request represents a VOLLEY command from a remote to the launcher.
//
// CBOR encoding:
//
//	{
//	  0: 1,          // message type: request
//	  1: messageId,  // uint32, never 0
//	  2: action,     // uint8: 1=Fire, 2=Continuous, 3=Halt, 4=Status
//	  3: mode        // string: "start"/"stop" (Continuous only)
//	}
type Request struct {
	MessageID uint32 `cbor:"1,keyasint"`
	Action    Action `cbor:"2,keyasint"`
	Mode      string `cbor:"3,keyasint,omitempty"`
}

// Validate checks if the request is valid.
// Mode presence for ActionContinuous is enforced by the launcher-side
// dispatcher, which owns the error texts; here only the frame shape counts.
func (r *Request) Validate() error {
	if r.MessageID == NotificationMessageID {
		return fmt.Errorf("messageId 0 is reserved for notifications")
	}
	if !r.Action.IsValid() {
		return fmt.Errorf("invalid action: %d", r.Action)
	}
	return nil
}

// Response represents the launcher's reply to a request.
//
// CBOR encoding:
//
//	{
//	  0: 2,          // message type: response
//	  1: messageId,  // uint32: matches request
//	  2: status,     // uint8: 0=success, or error code
//	  3: text,       // string: acknowledgement or error text
//	  4: state       // LauncherState (Status requests, optional elsewhere)
//	}
type Response struct {
	MessageID uint32         `cbor:"1,keyasint"`
	Status    Status         `cbor:"2,keyasint"`
	Text      string         `cbor:"3,keyasint,omitempty"`
	State     *LauncherState `cbor:"4,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Notification represents an unsolicited state push from the launcher.
// Sent on every fire-mode change and shot.
//
// CBOR encoding:
//
//	{
//	  0: 3,    // message type: notification
//	  1: 0,    // messageId 0 = notification
//	  4: state // LauncherState
//	}
type Notification struct {
	State LauncherState `cbor:"4,keyasint"`
}

// LauncherState is a snapshot of the launcher, carried in Status responses
// and notifications.
//
// CBOR encoding:
//
//	{
//	  1: mode,           // string: "IDLE", "SINGLE_SHOT" or "CONTINUOUS"
//	  2: motorsRunning,  // bool
//	  3: triggerPressed, // bool
//	  4: shotCount       // uint64
//	}
type LauncherState struct {
	Mode           string `cbor:"1,keyasint"`
	MotorsRunning  bool   `cbor:"2,keyasint"`
	TriggerPressed bool   `cbor:"3,keyasint"`
	ShotCount      uint64 `cbor:"4,keyasint"`
}

// Ping is a transport-level liveness probe. The timestamp is an opaque
// token echoed back in the pong; senders use Unix milliseconds so captures
// double as round-trip measurements.
type Ping struct {
	Timestamp int64 `cbor:"1,keyasint"`
}

// Pong answers a ping, echoing its timestamp.
type Pong struct {
	Timestamp int64 `cbor:"1,keyasint"`
}

// Close initiates graceful connection close.
type Close struct {
	Reason string `cbor:"1,keyasint,omitempty"`
}
