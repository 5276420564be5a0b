package transport

import (
	"context"
	"net"
)

// TransportServer is the launcher-side server surface.
// Implemented by Server.
type TransportServer interface {
	// Start begins accepting connections.
	Start(ctx context.Context) error

	// Stop gracefully stops the server.
	Stop() error

	// Addr returns the server's listen address.
	Addr() net.Addr

	// ConnectionCount returns the number of active connections.
	ConnectionCount() int

	// Send writes an unsolicited frame to one connection.
	Send(connID string, data []byte) error

	// Broadcast writes a frame to every active connection.
	Broadcast(data []byte)
}

// ClientConnection is an established connection to a launcher.
// Implemented by ClientConn.
type ClientConnection interface {
	// ConnID returns the connection identifier used in protocol logs.
	ConnID() string

	// LocalAddr returns the local network address.
	LocalAddr() net.Addr

	// RemoteAddr returns the remote network address.
	RemoteAddr() net.Addr

	// State returns the connection lifecycle state.
	State() ConnState

	// Send writes one data frame.
	Send(data []byte) error

	// Close performs the close handshake and tears the connection down.
	Close() error
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads a length-prefixed frame.
	ReadFrame() ([]byte, error)

	// WriteFrame writes a length-prefixed frame.
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ TransportServer  = (*Server)(nil)
	_ ClientConnection = (*ClientConn)(nil)
	_ FrameReadWriter  = (*Framer)(nil)
)
