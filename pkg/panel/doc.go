// Package panel serves the launcher's embedded browser control panel.
//
// The launcher hosts a single-page UI with fire controls and a live
// status readout, plus a small HTTP API the page (or anything else on
// the network) can drive:
//
//	GET  /            the control page
//	POST /api/fire    single shot            -> "SINGLE FIRE!"
//	POST /api/continuous?mode=start|stop     -> "CONTINUOUS FIRE STARTED" / "CONTINUOUS FIRE STOPPED"
//	POST /api/halt    emergency stop         -> "STOPPED"
//	GET  /api/status  JSON snapshot
//	GET  /ws          WebSocket status stream
//
// Commands go through the same launcher.Commander boundary as the wire
// dispatcher, so validation is identical on both surfaces: a continuous
// request without a mode is rejected with HTTP 400 "Missing mode
// parameter", an unrecognized mode with HTTP 400 "Invalid mode
// parameter", and neither touches the launcher.
//
// Every launcher state change is pushed to all connected WebSocket
// clients as a JSON snapshot.
package panel
