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

// DefaultPort is the default VOLLEY listen port.
const DefaultPort = 8617

// ErrUnknownConnection indicates a send to a connection ID that is not
// (or no longer) registered.
var ErrUnknownConnection = errors.New("unknown connection")

// ServerConfig configures a launcher-side server.
type ServerConfig struct {
	// Address to listen on (e.g., ":8617" or "127.0.0.1:8617").
	Address string

	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// Logger for protocol logging (optional).
	Logger log.Logger

	// OnConnect is called when a new connection is established.
	OnConnect func(connID string, remoteAddr net.Addr)

	// OnDisconnect is called when a connection goes away, with a
	// human-readable reason.
	OnDisconnect func(connID, reason string)

	// OnMessage is called for every data frame. Returned bytes, if
	// any, are written back on the same connection as the reply.
	OnMessage func(connID string, data []byte) ([]byte, error)

	// OnError is called when an error occurs. connID is empty for
	// errors not tied to a single connection.
	OnError func(connID string, err error)
}

// Server accepts remote connections and pumps framed messages into the
// configured handler. Ping and close control frames are answered at
// this layer and never reach OnMessage.
type Server struct {
	config   ServerConfig
	listener net.Listener

	// Active connections by ID
	conns   map[string]*serverConn
	connsMu sync.RWMutex

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a new server. Zero config fields get defaults.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	return &Server{
		config: config,
		conns:  make(map[string]*serverConn),
	}
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all connections.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.cancel()

	// Close listener to stop accept loop
	if s.listener != nil {
		s.listener.Close()
	}

	// Close all connections
	s.connsMu.Lock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	// Wait for goroutines
	s.wg.Wait()

	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// ConnectionIDs returns the IDs of all active connections.
func (s *Server) ConnectionIDs() []string {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	ids := make([]string, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	return ids
}

// Send writes an unsolicited frame to one connection.
func (s *Server) Send(connID string, data []byte) error {
	s.connsMu.RLock()
	conn, ok := s.conns[connID]
	s.connsMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	return conn.Send(data)
}

// Broadcast writes a frame to every active connection. Write failures
// are not reported here: the per-connection read pumps notice dead
// connections on their own.
func (s *Server) Broadcast(data []byte) {
	s.connsMu.RLock()
	conns := make([]*serverConn, 0, len(s.conns))
	for _, conn := range s.conns {
		conns = append(conns, conn)
	}
	s.connsMu.RUnlock()

	for _, conn := range conns {
		_ = conn.Send(data)
	}
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				// Real error
				if s.config.OnError != nil {
					s.config.OnError("", fmt.Errorf("accept error: %w", err))
				}
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection owns one connection from accept to disconnect.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.New().String()

	framer := NewFramerWithMaxSize(conn, s.config.MaxMessageSize)
	if s.config.Logger != nil {
		framer.SetLogger(s.config.Logger, connID)
	}

	sconn := &serverConn{
		conn:       conn,
		framer:     framer,
		server:     s,
		closeCh:    make(chan struct{}),
		remoteAddr: conn.RemoteAddr(),
		connID:     connID,
	}

	s.logConnState(sconn, "", "CONNECTED", "")

	s.connsMu.Lock()
	s.conns[connID] = sconn
	s.connsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(connID, conn.RemoteAddr())
	}

	reason := sconn.readLoop()
	sconn.Close()

	s.connsMu.Lock()
	delete(s.conns, connID)
	s.connsMu.Unlock()

	s.logConnState(sconn, "CONNECTED", "DISCONNECTED", reason)

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(connID, reason)
	}
}

// logConnState logs a connection lifecycle transition.
func (s *Server) logConnState(c *serverConn, oldState, newState, reason string) {
	if s.config.Logger == nil {
		return
	}
	s.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    log.DirectionLocal,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   c.remoteAddr.String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// serverConn is one accepted remote connection.
type serverConn struct {
	conn       net.Conn
	framer     *Framer
	server     *Server
	closeCh    chan struct{}
	closeOnce  sync.Once
	remoteAddr net.Addr
	connID     string

	writeMu sync.Mutex
}

// Send writes one frame to the remote.
func (c *serverConn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.framer.WriteFrame(data)
}

// Close closes the connection.
func (c *serverConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// readLoop pumps frames until the connection dies. The returned string
// is the disconnect reason reported to OnDisconnect.
func (c *serverConn) readLoop() string {
	for {
		select {
		case <-c.closeCh:
			return "connection closed"
		case <-c.server.ctx.Done():
			return "server shutdown"
		default:
		}

		data, err := c.framer.ReadFrame()
		if err != nil {
			select {
			case <-c.closeCh:
				// Already closing, don't report
				return "connection closed"
			default:
			}
			if errors.Is(err, io.EOF) {
				return "closed by peer"
			}
			if c.server.config.OnError != nil && c.server.running.Load() {
				c.server.config.OnError(c.connID, err)
			}
			return fmt.Sprintf("read error: %v", err)
		}

		// Control frames are answered here. Everything else goes to
		// OnMessage, including frames that do not even parse, so the
		// handler can produce a proper error response.
		if msgType, err := wire.PeekMessageType(data); err == nil && msgType.IsControl() {
			if reason, closed := c.handleControl(msgType, data); closed {
				return reason
			}
			continue
		}

		c.dispatch(data)
	}
}

// dispatch hands a data frame to the message handler and writes back
// its reply, if any.
func (c *serverConn) dispatch(data []byte) {
	handler := c.server.config.OnMessage
	if handler == nil {
		return
	}

	reply, err := handler(c.connID, data)
	if err != nil && c.server.config.OnError != nil {
		c.server.config.OnError(c.connID, err)
	}
	if len(reply) == 0 {
		return
	}
	if err := c.Send(reply); err != nil && c.server.config.OnError != nil {
		c.server.config.OnError(c.connID, fmt.Errorf("failed to write reply: %w", err))
	}
}

// handleControl answers ping and close frames in place.
func (c *serverConn) handleControl(msgType wire.MessageType, data []byte) (reason string, closed bool) {
	c.logControl(msgType, log.DirectionIn)

	switch msgType {
	case wire.MessageTypePing:
		ping, err := wire.DecodePing(data)
		if err != nil {
			return "", false
		}
		pong, err := wire.EncodePong(&wire.Pong{Timestamp: ping.Timestamp})
		if err != nil {
			return "", false
		}
		if c.Send(pong) == nil {
			c.logControl(wire.MessageTypePong, log.DirectionOut)
		}

	case wire.MessageTypePong:
		// Remotes drive the keep-alive; a stray pong is harmless.

	case wire.MessageTypeClose:
		reason = "closed by peer"
		if cl, err := wire.DecodeClose(data); err == nil && cl.Reason != "" {
			reason = "closed by peer: " + cl.Reason
		}
		// Acknowledge, then drop the connection.
		if ack, err := wire.EncodeClose(&wire.Close{}); err == nil {
			if c.Send(ack) == nil {
				c.logControl(wire.MessageTypeClose, log.DirectionOut)
			}
		}
		c.Close()
		return reason, true
	}

	return "", false
}

// logControl logs a ping/pong/close frame.
func (c *serverConn) logControl(msgType wire.MessageType, direction log.Direction) {
	if c.server.config.Logger == nil {
		return
	}
	c.server.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryControl,
		RemoteAddr:   c.remoteAddr.String(),
		ControlMsg: &log.ControlMsgEvent{
			Type: msgType,
		},
	})
}
