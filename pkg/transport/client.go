package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/volley-protocol/volley-go/pkg/log"
	"github.com/volley-protocol/volley-go/pkg/wire"
)

// ErrConnectionClosed indicates an operation on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// ConnState is the lifecycle state of a client connection.
type ConnState int32

const (
	// StateConnected indicates an active connection.
	StateConnected ConnState = iota

	// StateClosing indicates a graceful close in progress.
	StateClosing

	// StateDisconnected indicates the connection is gone.
	StateDisconnected
)

// String returns the connection state name.
func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateClosing:
		return "CLOSING"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// ClientConfig configures a remote-side client.
type ClientConfig struct {
	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// ConnectTimeout bounds dialing when the context carries no
	// deadline of its own (default: 10s).
	ConnectTimeout time.Duration

	// CloseTimeout bounds the graceful close handshake (default: 5s).
	CloseTimeout time.Duration

	// KeepAlive configuration.
	KeepAlive KeepAliveConfig

	// DisableKeepAlive turns liveness monitoring off.
	DisableKeepAlive bool

	// Logger for protocol logging (optional).
	Logger log.Logger

	// OnMessage is called for every data frame the launcher returns
	// or pushes.
	OnMessage func(data []byte)

	// OnDisconnect is called exactly once per connection when it goes
	// away, with a human-readable reason.
	OnDisconnect func(reason string)
}

// Client dials launchers.
type Client struct {
	config ClientConfig
}

// NewClient creates a new client. Zero config fields get defaults.
func NewClient(config ClientConfig) *Client {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.CloseTimeout == 0 {
		config.CloseTimeout = 5 * time.Second
	}
	return &Client{config: config}
}

// Connect establishes a connection to the specified address and starts
// the read pump and keep-alive.
func (c *Client) Connect(ctx context.Context, address string) (*ClientConn, error) {
	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	connID := uuid.New().String()
	framer := NewFramerWithMaxSize(conn, c.config.MaxMessageSize)
	if c.config.Logger != nil {
		framer.SetLogger(c.config.Logger, connID)
	}

	cc := &ClientConn{
		conn:     conn,
		framer:   framer,
		client:   c,
		connID:   connID,
		closeCh:  make(chan struct{}),
		readDone: make(chan struct{}),
	}
	cc.state.Store(int32(StateConnected))
	cc.logConnState("", "CONNECTED", "")

	if !c.config.DisableKeepAlive {
		cc.keepAlive = NewKeepAlive(c.config.KeepAlive, cc.sendPing, func() {
			cc.abort("keep-alive timeout")
		})
		// The keep-alive outlives the dial context; Stop happens in
		// the teardown.
		cc.keepAlive.Start(context.Background())
	}

	go cc.readLoop()

	return cc, nil
}

// ClientConn is an established connection to a launcher. Frames are
// pumped on a background goroutine; ping, pong and close frames are
// handled at this layer and never reach OnMessage.
type ClientConn struct {
	conn   net.Conn
	framer *Framer
	client *Client
	connID string

	keepAlive *KeepAlive

	state    atomic.Int32
	closeCh  chan struct{}
	readDone chan struct{}

	closeOnce sync.Once
	downOnce  sync.Once

	abortMu     sync.Mutex
	abortReason string

	writeMu sync.Mutex
}

// ConnID returns the connection identifier used in protocol logs.
func (c *ClientConn) ConnID() string {
	return c.connID
}

// State returns the connection lifecycle state.
func (c *ClientConn) State() ConnState {
	return ConnState(c.state.Load())
}

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// KeepAliveStats returns liveness statistics. The second return is
// false when keep-alive is disabled.
func (c *ClientConn) KeepAliveStats() (KeepAliveStats, bool) {
	if c.keepAlive == nil {
		return KeepAliveStats{}, false
	}
	return c.keepAlive.Stats(), true
}

// Send writes one data frame. Safe for concurrent use.
func (c *ClientConn) Send(data []byte) error {
	if c.State() != StateConnected {
		return ErrConnectionClosed
	}
	return c.send(data)
}

// send writes a frame without the state check, for control frames
// that are legitimate during the close handshake.
func (c *ClientConn) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.framer.WriteFrame(data)
}

// Close performs the close handshake: a close frame is sent and the
// read pump is given CloseTimeout to observe the acknowledgment before
// the socket is torn down.
func (c *ClientConn) Close() error {
	c.closeOnce.Do(func() {
		if c.State() == StateConnected {
			c.state.Store(int32(StateClosing))
			if data, err := wire.EncodeClose(&wire.Close{}); err == nil {
				if c.send(data) == nil {
					c.logControl(wire.MessageTypeClose, log.DirectionOut)
				}
			}
			select {
			case <-c.readDone:
			case <-time.After(c.client.config.CloseTimeout):
			}
		}
		close(c.closeCh)
		c.teardown("connection closed")
	})
	return nil
}

// abort records the reason and kills the socket; the read pump
// observes the dead socket and finishes the teardown.
func (c *ClientConn) abort(reason string) {
	c.abortMu.Lock()
	if c.abortReason == "" {
		c.abortReason = reason
	}
	c.abortMu.Unlock()
	c.conn.Close()
}

func (c *ClientConn) loadAbortReason() string {
	c.abortMu.Lock()
	defer c.abortMu.Unlock()
	return c.abortReason
}

// teardown releases the connection exactly once and reports the
// disconnect.
func (c *ClientConn) teardown(reason string) {
	c.downOnce.Do(func() {
		if c.keepAlive != nil {
			c.keepAlive.Stop()
		}
		c.conn.Close()

		oldState := c.State()
		c.state.Store(int32(StateDisconnected))
		c.logConnState(oldState.String(), "DISCONNECTED", reason)

		if c.client.config.OnDisconnect != nil {
			c.client.config.OnDisconnect(reason)
		}
	})
}

// readLoop pumps frames until the connection dies and then tears it
// down with the observed disconnect reason.
func (c *ClientConn) readLoop() {
	reason := "connection closed"
	defer func() {
		close(c.readDone)
		c.teardown(reason)
	}()

	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		data, err := c.framer.ReadFrame()
		if err != nil {
			switch {
			case c.loadAbortReason() != "":
				reason = c.loadAbortReason()
			case c.State() == StateClosing:
				// Socket went down mid-handshake; still a local close.
			case errors.Is(err, io.EOF):
				reason = "closed by peer"
			default:
				reason = fmt.Sprintf("read error: %v", err)
			}
			return
		}

		msgType, peekErr := wire.PeekMessageType(data)
		if peekErr != nil {
			// Unparseable frames are payload as far as this layer is
			// concerned.
			c.deliver(data)
			continue
		}

		switch msgType {
		case wire.MessageTypePing:
			// Symmetric liveness: answer launcher-side pings.
			c.logControl(wire.MessageTypePing, log.DirectionIn)
			if ping, err := wire.DecodePing(data); err == nil {
				if pong, err := wire.EncodePong(&wire.Pong{Timestamp: ping.Timestamp}); err == nil {
					if c.send(pong) == nil {
						c.logControl(wire.MessageTypePong, log.DirectionOut)
					}
				}
			}

		case wire.MessageTypePong:
			c.logControl(wire.MessageTypePong, log.DirectionIn)
			if pong, err := wire.DecodePong(data); err == nil && c.keepAlive != nil {
				c.keepAlive.PongReceived(pong.Timestamp)
			}

		case wire.MessageTypeClose:
			c.logControl(wire.MessageTypeClose, log.DirectionIn)
			if c.State() == StateClosing {
				// The acknowledgment of our own close.
				return
			}
			reason = "closed by peer"
			if cl, err := wire.DecodeClose(data); err == nil && cl.Reason != "" {
				reason = "closed by peer: " + cl.Reason
			}
			if ack, err := wire.EncodeClose(&wire.Close{}); err == nil {
				if c.send(ack) == nil {
					c.logControl(wire.MessageTypeClose, log.DirectionOut)
				}
			}
			return

		default:
			c.deliver(data)
		}
	}
}

// deliver hands a data frame to the message callback.
func (c *ClientConn) deliver(data []byte) {
	if c.client.config.OnMessage != nil {
		c.client.config.OnMessage(data)
	}
}

// sendPing is the keep-alive send hook.
func (c *ClientConn) sendPing(token int64) error {
	data, err := wire.EncodePing(&wire.Ping{Timestamp: token})
	if err != nil {
		return err
	}
	if err := c.send(data); err != nil {
		return err
	}
	c.logControl(wire.MessageTypePing, log.DirectionOut)
	return nil
}

// logControl logs a ping/pong/close frame.
func (c *ClientConn) logControl(msgType wire.MessageType, direction log.Direction) {
	logger := c.client.config.Logger
	if logger == nil {
		return
	}
	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryControl,
		RemoteAddr:   c.conn.RemoteAddr().String(),
		ControlMsg: &log.ControlMsgEvent{
			Type: msgType,
		},
	})
}

// logConnState logs a connection lifecycle transition.
func (c *ClientConn) logConnState(oldState, newState, reason string) {
	logger := c.client.config.Logger
	if logger == nil {
		return
	}
	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    log.DirectionLocal,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   c.conn.RemoteAddr().String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
