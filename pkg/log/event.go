package log

import (
	"time"

	"github.com/volley-protocol/volley-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	// Empty for events with no connection, such as actuations.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this trace was captured on the launcher
	// or on a remote.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// SerialNumber identifies the launcher the event belongs to.
	SerialNumber string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Connection/fire-mode state
	ControlMsg  *ControlMsgEvent  `cbor:"13,keyasint,omitempty"` // Ping/pong/close
	Actuation   *ActuationEvent   `cbor:"14,keyasint,omitempty"` // Motor/servo writes
	Timer       *TimerEvent       `cbor:"15,keyasint,omitempty"` // Deadline transitions
	Error       *ErrorEventData   `cbor:"16,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
	// DirectionLocal indicates an event with no peer, such as an actuation
	// or a deadline expiry.
	DirectionLocal Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerController is the fire-control layer (actuations, deadlines).
	LayerController Layer = 2
	// LayerPanel is the embedded web panel.
	LayerPanel Layer = 3
	// LayerService is the application/service layer.
	LayerService Layer = 4
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerController:
		return "CONTROLLER"
	case LayerPanel:
		return "PANEL"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message. The MessageEvent type
	// field tells commands (requests), acknowledgements (responses) and
	// status pushes (notifications) apart.
	CategoryMessage Category = 0
	// CategoryControl indicates a control message (ping/pong/close).
	CategoryControl Category = 1
	// CategoryState indicates a state change (connect/disconnect, fire mode).
	CategoryState Category = 2
	// CategoryActuation indicates a motor or servo write.
	CategoryActuation Category = 3
	// CategoryTimer indicates a deadline being armed, expiring or disarmed.
	CategoryTimer Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryActuation:
		return "ACTUATION"
	case CategoryTimer:
		return "TIMER"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local endpoint is the launcher or a remote.
type Role uint8

const (
	// RoleDevice indicates the trace was captured on the launcher.
	RoleDevice Role = 0
	// RoleRemote indicates the trace was captured on a remote.
	RoleRemote Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleDevice:
		return "DEVICE"
	case RoleRemote:
		return "REMOTE"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded protocol message at the wire layer.
type MessageEvent struct {
	// Type distinguishes request/response/notification.
	Type wire.MessageType `cbor:"1,keyasint"`

	// MessageID correlates request/response pairs (0 for notifications).
	MessageID uint32 `cbor:"2,keyasint"`

	// For requests: the action being performed.
	Action *wire.Action `cbor:"3,keyasint,omitempty"`

	// For continuous requests: the mode argument.
	Mode string `cbor:"4,keyasint,omitempty"`

	// For responses: the status code.
	Status *wire.Status `cbor:"5,keyasint,omitempty"`

	// For responses: the acknowledgement or error text.
	Text string `cbor:"6,keyasint,omitempty"`

	// Launcher state carried by the message (status responses, notifications).
	State *wire.LauncherState `cbor:"7,keyasint,omitempty"`

	// ProcessingTime is the duration from request receipt to response send
	// (response only). Stored as nanoseconds.
	ProcessingTime *time.Duration `cbor:"8,keyasint,omitempty"`
}

// StateChangeEvent captures connection and fire-mode lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityFireMode indicates a launcher fire-mode change.
	StateEntityFireMode StateEntity = 1
	// StateEntityService indicates a service lifecycle change.
	StateEntityService StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityFireMode:
		return "FIRE_MODE"
	case StateEntityService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// ControlMsgEvent captures transport-level control messages.
type ControlMsgEvent struct {
	// Type of control message (ping/pong/close).
	Type wire.MessageType `cbor:"1,keyasint"`

	// Reason is the close reason, if any.
	Reason string `cbor:"2,keyasint,omitempty"`
}

// ActuationEvent captures a hardware write at the controller layer.
type ActuationEvent struct {
	// Kind of actuator written.
	Kind ActuationKind `cbor:"1,keyasint"`

	// On is the commanded motor state (motors only).
	On bool `cbor:"2,keyasint,omitempty"`

	// Angle is the commanded servo angle in degrees (trigger only).
	Angle uint8 `cbor:"3,keyasint,omitempty"`
}

// ActuationKind indicates which actuator was written.
type ActuationKind uint8

const (
	// ActuationMotors indicates a flywheel motor write.
	ActuationMotors ActuationKind = 0
	// ActuationTrigger indicates a trigger servo write.
	ActuationTrigger ActuationKind = 1
)

// String returns the actuation kind name.
func (k ActuationKind) String() string {
	switch k {
	case ActuationMotors:
		return "MOTORS"
	case ActuationTrigger:
		return "TRIGGER"
	default:
		return "UNKNOWN"
	}
}

// TimerEvent captures a controller deadline transition.
type TimerEvent struct {
	// Kind of deadline.
	Kind TimerKind `cbor:"1,keyasint"`

	// Change that happened to the deadline.
	Change TimerChange `cbor:"2,keyasint"`

	// Deadline is the duration the timer was armed for (arm events only).
	// Stored as nanoseconds.
	Deadline time.Duration `cbor:"3,keyasint,omitempty"`
}

// TimerKind indicates which controller deadline the event refers to.
type TimerKind uint8

const (
	// TimerMotorRun is the single-shot motor run deadline.
	TimerMotorRun TimerKind = 0
	// TimerTriggerPulse is the trigger pulse release deadline.
	TimerTriggerPulse TimerKind = 1
	// TimerFireInterval is the continuous-fire cadence deadline.
	TimerFireInterval TimerKind = 2
)

// String returns the timer kind name.
func (k TimerKind) String() string {
	switch k {
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

// TimerChange indicates what happened to a deadline.
type TimerChange uint8

const (
	// TimerArmed indicates the deadline was armed.
	TimerArmed TimerChange = 0
	// TimerExpired indicates the deadline elapsed and its action ran.
	TimerExpired TimerChange = 1
	// TimerDisarmed indicates the deadline was cancelled before expiry.
	TimerDisarmed TimerChange = 2
)

// String returns the timer change name.
func (c TimerChange) String() string {
	switch c {
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

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
