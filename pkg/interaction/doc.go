// Package interaction implements the VOLLEY request/response layer.
//
// A launcher accepts four actions from a remote: Fire (one shot),
// Continuous (start or stop autonomous fire), Halt (emergency stop)
// and Status (read the launcher state). Every request is answered with
// exactly one response carrying the matching message ID; state pushes
// travel the other way as notifications with message ID 0.
//
// # Dispatcher Usage
//
// The Dispatcher sits on the launcher and turns incoming frames into
// launcher commands:
//
//	dispatcher, err := interaction.NewDispatcher(interaction.DispatcherConfig{
//	    Commander: commander,
//	})
//
//	// Wire it into the transport server; returned bytes are the reply.
//	server := transport.NewServer(transport.ServerConfig{
//	    OnMessage: dispatcher.HandleMessage,
//	})
//
// Requests that fail validation are answered with an error status and
// never reach the launcher: an unknown action yields INVALID_ACTION, a
// continuous request without a mode MISSING_PARAMETER, one with an
// unrecognized mode INVALID_PARAMETER, and an undecodable frame
// MALFORMED_REQUEST.
//
// # Client Usage
//
// The Client runs on a remote and correlates responses to requests by
// message ID:
//
//	client := interaction.NewClient(conn)
//
//	// Route every incoming frame through the client.
//	// (transport.ClientConfig.OnMessage)
//	_ = client.HandleMessage(data)
//
//	text, err := client.Fire(ctx)
//	state, err := client.Status(ctx)
//
//	client.SetNotificationHandler(func(state wire.LauncherState) {
//	    // Launcher fired or changed mode.
//	})
//
// Each call blocks until the launcher answers, the context is done or
// the request timeout (10 seconds unless changed) elapses. A response
// with a non-success status is returned as a *StatusError.
package interaction
