package interaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/volley-protocol/volley-go/pkg/wire"
)

// Client errors.
var (
	ErrRequestTimeout  = errors.New("request timed out")
	ErrClientClosed    = errors.New("client is closed")
	ErrUnexpectedReply = errors.New("unexpected reply")
	ErrMissingState    = errors.New("status response carries no state")
)

// DefaultRequestTimeout is the per-request timeout unless changed with
// SetTimeout.
const DefaultRequestTimeout = 10 * time.Second

// RequestSender is the interface for sending request frames to a
// launcher. Responses arrive asynchronously through HandleMessage.
type RequestSender interface {
	Send(data []byte) error
}

// NotificationHandler receives unsolicited launcher state pushes.
type NotificationHandler func(state wire.LauncherState)

// Client provides a high-level API for commanding a launcher. It is
// safe for concurrent use; each in-flight request is correlated to its
// response by message ID.
type Client struct {
	mu sync.RWMutex

	sender  RequestSender
	timeout time.Duration

	// Message ID generator
	nextMsgID uint32

	// Pending requests awaiting responses
	pending   map[uint32]chan *wire.Response
	pendingMu sync.RWMutex

	notifyHandler NotificationHandler

	closed bool
}

// NewClient creates a client that sends requests through sender.
func NewClient(sender RequestSender) *Client {
	return &Client{
		sender:  sender,
		timeout: DefaultRequestTimeout,
		pending: make(map[uint32]chan *wire.Response),
	}
}

// SetTimeout sets the per-request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// SetNotificationHandler sets the handler for incoming state pushes.
func (c *Client) SetNotificationHandler(handler NotificationHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifyHandler = handler
}

// Close fails all pending requests and rejects new ones. Pending
// channels are buffered and get a nil sentinel rather than being
// closed, so a response arriving concurrently can never hit a closed
// channel.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	c.pendingMu.Lock()
	for _, ch := range c.pending {
		select {
		case ch <- nil:
		default:
		}
	}
	c.pending = make(map[uint32]chan *wire.Response)
	c.pendingMu.Unlock()

	return nil
}

// nextMessageID generates the next message ID, skipping 0 which is
// reserved for notifications.
func (c *Client) nextMessageID() uint32 {
	id := atomic.AddUint32(&c.nextMsgID, 1)
	if id == wire.NotificationMessageID {
		id = atomic.AddUint32(&c.nextMsgID, 1)
	}
	return id
}

// Fire commands a single shot and returns the acknowledgement text.
func (c *Client) Fire(ctx context.Context) (string, error) {
	return c.sendCommand(ctx, &wire.Request{
		MessageID: c.nextMessageID(),
		Action:    wire.ActionFire,
	})
}

// StartContinuous begins continuous fire and returns the
// acknowledgement text.
func (c *Client) StartContinuous(ctx context.Context) (string, error) {
	return c.sendCommand(ctx, &wire.Request{
		MessageID: c.nextMessageID(),
		Action:    wire.ActionContinuous,
		Mode:      wire.ModeStart,
	})
}

// StopContinuous ends continuous fire and returns the acknowledgement
// text.
func (c *Client) StopContinuous(ctx context.Context) (string, error) {
	return c.sendCommand(ctx, &wire.Request{
		MessageID: c.nextMessageID(),
		Action:    wire.ActionContinuous,
		Mode:      wire.ModeStop,
	})
}

// Halt stops the launcher immediately and returns the acknowledgement
// text.
func (c *Client) Halt(ctx context.Context) (string, error) {
	return c.sendCommand(ctx, &wire.Request{
		MessageID: c.nextMessageID(),
		Action:    wire.ActionHalt,
	})
}

// Status reads the current launcher state.
func (c *Client) Status(ctx context.Context) (wire.LauncherState, error) {
	resp, err := c.sendRequest(ctx, &wire.Request{
		MessageID: c.nextMessageID(),
		Action:    wire.ActionStatus,
	})
	if err != nil {
		return wire.LauncherState{}, err
	}
	if !resp.IsSuccess() {
		return wire.LauncherState{}, &StatusError{Status: resp.Status, Text: resp.Text}
	}
	if resp.State == nil {
		return wire.LauncherState{}, ErrMissingState
	}
	return *resp.State, nil
}

// sendCommand sends a request whose reply carries only an
// acknowledgement text.
func (c *Client) sendCommand(ctx context.Context, req *wire.Request) (string, error) {
	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", &StatusError{Status: resp.Status, Text: resp.Text}
	}
	return resp.Text, nil
}

// sendRequest sends a request and waits for its response.
func (c *Client) sendRequest(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrClientClosed
	}
	timeout := c.timeout
	c.mu.RUnlock()

	respCh := make(chan *wire.Response, 1)

	c.pendingMu.Lock()
	c.pending[req.MessageID] = respCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.MessageID)
		c.pendingMu.Unlock()
	}()

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	if err := c.sender.Send(data); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, ErrRequestTimeout
	case resp := <-respCh:
		if resp == nil {
			return nil, ErrClientClosed
		}
		return resp, nil
	}
}

// HandleMessage routes a raw frame from the transport to the matching
// pending request or to the notification handler.
func (c *Client) HandleMessage(data []byte) error {
	msgType, err := wire.PeekMessageType(data)
	if err != nil {
		return err
	}

	switch msgType {
	case wire.MessageTypeResponse:
		resp, err := wire.DecodeResponse(data)
		if err != nil {
			return err
		}
		return c.HandleResponse(resp)

	case wire.MessageTypeNotification:
		notif, err := wire.DecodeNotification(data)
		if err != nil {
			return err
		}
		c.HandleNotification(notif)
		return nil

	default:
		return fmt.Errorf("%w: message type %s", ErrUnexpectedReply, msgType)
	}
}

// HandleResponse hands a decoded response to the request waiting on it.
func (c *Client) HandleResponse(resp *wire.Response) error {
	c.pendingMu.RLock()
	ch, exists := c.pending[resp.MessageID]
	c.pendingMu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: messageId %d", ErrUnexpectedReply, resp.MessageID)
	}

	select {
	case ch <- resp:
	default:
		// Duplicate response for an already answered request.
	}
	return nil
}

// HandleNotification hands a decoded state push to the notification
// handler.
func (c *Client) HandleNotification(notif *wire.Notification) {
	c.mu.RLock()
	handler := c.notifyHandler
	c.mu.RUnlock()

	if handler != nil {
		handler(notif.State)
	}
}

// StatusError is the error returned when the launcher answers with a
// non-success status.
type StatusError struct {
	Status wire.Status
	Text   string
}

func (e *StatusError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Text)
	}
	return e.Status.String()
}
