// Package wire defines the CBOR wire format types for the VOLLEY protocol.
//
// VOLLEY uses CBOR (RFC 8949) with integer keys for efficient encoding.
// All messages are length-prefixed and transmitted over TCP.
//
// # Message Types
//
// Every message carries its type in the envelope at key 0. There are three
// primary message types plus three control messages:
//   - Request: Remote to launcher (Fire, Continuous, Halt, Status)
//   - Response: Launcher to remote (acknowledgement text or error)
//   - Notification: Launcher to remote (unsolicited state pushes)
//   - Ping/Pong/Close: Transport-level liveness and shutdown
//
// # CBOR Integer Keys
//
// All maps use integer keys for compactness. The key mappings are
// defined as constants in this package.
//
// # Notifications
//
// Notifications reuse the request/response key layout but carry messageId 0,
// which is reserved for them. A remote can therefore route an incoming frame
// either by the envelope type or by the zero messageId.
package wire
