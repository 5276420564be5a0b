package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for VOLLEY messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for VOLLEY messages.
var decMode cbor.DecMode

func init() {
	var err error

	// Configure encoder for deterministic output
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical, // Deterministic key ordering
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix, // Unix timestamps
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Configure decoder to be lenient for forward compatibility
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet, // Ignore duplicate keys (last wins)
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// requestEnvelope is the on-wire shape of a request (envelope type plus body).
type requestEnvelope struct {
	Type      MessageType `cbor:"0,keyasint"`
	MessageID uint32      `cbor:"1,keyasint"`
	Action    Action      `cbor:"2,keyasint"`
	Mode      string      `cbor:"3,keyasint,omitempty"`
}

// EncodeRequest encodes a request message to CBOR bytes.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(requestEnvelope{
		Type:      MessageTypeRequest,
		MessageID: req.MessageID,
		Action:    req.Action,
		Mode:      req.Mode,
	})
}

// DecodeRequest decodes CBOR bytes into a request message. The request is
// not semantically validated: a well-formed frame with an unknown action or
// a reserved message ID decodes fine, so the receiver can answer it with the
// matching error status instead of dropping it as malformed.
func DecodeRequest(data []byte) (*Request, error) {
	var env requestEnvelope
	if err := Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if env.Type != MessageTypeRequest {
		return nil, fmt.Errorf("not a request message: type=%d", env.Type)
	}
	return &Request{
		MessageID: env.MessageID,
		Action:    env.Action,
		Mode:      env.Mode,
	}, nil
}

// responseEnvelope is the on-wire shape of a response.
type responseEnvelope struct {
	Type      MessageType    `cbor:"0,keyasint"`
	MessageID uint32         `cbor:"1,keyasint"`
	Status    Status         `cbor:"2,keyasint"`
	Text      string         `cbor:"3,keyasint,omitempty"`
	State     *LauncherState `cbor:"4,keyasint,omitempty"`
}

// EncodeResponse encodes a response message to CBOR bytes.
func EncodeResponse(resp *Response) ([]byte, error) {
	return Marshal(responseEnvelope{
		Type:      MessageTypeResponse,
		MessageID: resp.MessageID,
		Status:    resp.Status,
		Text:      resp.Text,
		State:     resp.State,
	})
}

// DecodeResponse decodes CBOR bytes into a response message.
func DecodeResponse(data []byte) (*Response, error) {
	var env responseEnvelope
	if err := Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Type != MessageTypeResponse {
		return nil, fmt.Errorf("not a response message: type=%d", env.Type)
	}
	return &Response{
		MessageID: env.MessageID,
		Status:    env.Status,
		Text:      env.Text,
		State:     env.State,
	}, nil
}

// notificationEnvelope is the on-wire shape of a notification.
// MessageID is always 0.
type notificationEnvelope struct {
	Type      MessageType   `cbor:"0,keyasint"`
	MessageID uint32        `cbor:"1,keyasint"`
	State     LauncherState `cbor:"4,keyasint"`
}

// EncodeNotification encodes a notification message to CBOR bytes.
// Notifications have messageId=0 which is handled automatically.
func EncodeNotification(notif *Notification) ([]byte, error) {
	return Marshal(notificationEnvelope{
		Type:      MessageTypeNotification,
		MessageID: NotificationMessageID,
		State:     notif.State,
	})
}

// DecodeNotification decodes CBOR bytes into a notification message.
func DecodeNotification(data []byte) (*Notification, error) {
	var env notificationEnvelope
	if err := Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	if env.Type != MessageTypeNotification {
		return nil, fmt.Errorf("not a notification message: type=%d", env.Type)
	}
	if env.MessageID != NotificationMessageID {
		return nil, fmt.Errorf("not a notification message: messageId=%d", env.MessageID)
	}
	return &Notification{State: env.State}, nil
}

// controlEnvelope is the on-wire shape of ping/pong messages.
// Value holds the echoed timestamp.
type controlEnvelope struct {
	Type  MessageType `cbor:"0,keyasint"`
	Value int64       `cbor:"1,keyasint,omitempty"`
}

// EncodePing encodes a ping control message to CBOR bytes.
func EncodePing(ping *Ping) ([]byte, error) {
	return Marshal(struct {
		Type      MessageType `cbor:"0,keyasint"`
		Timestamp int64       `cbor:"1,keyasint"`
	}{MessageTypePing, ping.Timestamp})
}

// DecodePing decodes CBOR bytes into a ping control message.
func DecodePing(data []byte) (*Ping, error) {
	var env controlEnvelope
	if err := Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode ping: %w", err)
	}
	if env.Type != MessageTypePing {
		return nil, fmt.Errorf("not a ping message: type=%d", env.Type)
	}
	return &Ping{Timestamp: env.Value}, nil
}

// EncodePong encodes a pong control message to CBOR bytes.
func EncodePong(pong *Pong) ([]byte, error) {
	return Marshal(struct {
		Type      MessageType `cbor:"0,keyasint"`
		Timestamp int64       `cbor:"1,keyasint"`
	}{MessageTypePong, pong.Timestamp})
}

// DecodePong decodes CBOR bytes into a pong control message.
func DecodePong(data []byte) (*Pong, error) {
	var env controlEnvelope
	if err := Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode pong: %w", err)
	}
	if env.Type != MessageTypePong {
		return nil, fmt.Errorf("not a pong message: type=%d", env.Type)
	}
	return &Pong{Timestamp: env.Value}, nil
}

// EncodeClose encodes a close control message to CBOR bytes.
func EncodeClose(cl *Close) ([]byte, error) {
	return Marshal(struct {
		Type   MessageType `cbor:"0,keyasint"`
		Reason string      `cbor:"1,keyasint,omitempty"`
	}{MessageTypeClose, cl.Reason})
}

// DecodeClose decodes CBOR bytes into a close control message.
func DecodeClose(data []byte) (*Close, error) {
	var env struct {
		Type   MessageType `cbor:"0,keyasint"`
		Reason string      `cbor:"1,keyasint,omitempty"`
	}
	if err := Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode close: %w", err)
	}
	if env.Type != MessageTypeClose {
		return nil, fmt.Errorf("not a close message: type=%d", env.Type)
	}
	return &Close{Reason: env.Reason}, nil
}

// PeekMessageType examines CBOR data to determine the message type
// without fully decoding it. Only the envelope key is read.
func PeekMessageType(data []byte) (MessageType, error) {
	var env struct {
		Type MessageType `cbor:"0,keyasint"`
	}
	if err := Unmarshal(data, &env); err != nil {
		return MessageTypeUnknown, fmt.Errorf("failed to peek message: %w", err)
	}
	if !env.Type.IsValid() {
		return MessageTypeUnknown, fmt.Errorf("unknown message type: %d", env.Type)
	}
	return env.Type, nil
}

// Clone creates a deep copy of the CBOR data by re-encoding.
// Useful for copying messages without shared references.
func Clone[T any](v T) (T, error) {
	var result T
	data, err := Marshal(v)
	if err != nil {
		return result, err
	}
	err = Unmarshal(data, &result)
	return result, err
}

// Equal compares two values by their CBOR encoding.
func Equal(a, b any) bool {
	dataA, errA := Marshal(a)
	dataB, errB := Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(dataA, dataB)
}
