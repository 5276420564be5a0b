// Package log provides structured protocol logging for VOLLEY.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, wire, controller,
// panel, service). It is separate from operational logging (slog) - protocol
// capture provides a complete machine-readable event trace for debugging
// and analysis: every frame, command, acknowledgement, actuation and timer
// transition the launcher goes through.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/volley/device.vlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/volley/device.vlog"),
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: Raw frame bytes (FrameEvent)
//   - Wire: Decoded messages (MessageEvent)
//   - Controller: Actuations and deadline transitions (ActuationEvent, TimerEvent)
//   - Service/Panel: State changes (StateChangeEvent)
//
// Control messages (ping/pong/close) and errors have dedicated event types.
//
// # File Format
//
// Log files use CBOR encoding with .vlog extension. The volley-log CLI tool
// provides viewing, filtering, and aggregation.
package log
