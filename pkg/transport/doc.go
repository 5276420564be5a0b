// Package transport provides the VOLLEY transport layer implementation.
//
// The transport layer handles:
//   - Plain TCP connections on the local network
//   - Length-prefixed message framing
//   - Keep-alive ping/pong for connection liveness
//   - Connection lifecycle callbacks and frame-level protocol logging
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR Messages             │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// Connections are plain TCP: launchers are expected to live on a
// trusted local network segment, and the protocol carries no secrets.
//
// # Control Frames
//
// Ping, pong and close frames are consumed by this layer on both
// sides. They are answered (ping with pong, close with a close
// acknowledgment) without ever reaching the message callbacks, so
// handlers above only see request, response and notification frames.
//
// # Keep-Alive
//
// The remote monitors connection liveness using ping/pong messages
// carrying millisecond timestamps:
//   - Ping interval: 15 seconds
//   - Pong timeout: 5 seconds
//   - Max missed pongs: 3
//   - Maximum detection delay: 50 seconds
package transport
