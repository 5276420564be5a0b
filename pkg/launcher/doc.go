// Package launcher implements the timed firing state machine at the
// heart of a VOLLEY device: two flywheel motors and a trigger servo,
// coordinated by three independent deadlines without ever blocking the
// control path.
//
// # Fire Modes
//
// The Controller is always in exactly one of three modes:
//
//   - IDLE: motors stopped, trigger at rest.
//   - SINGLE_SHOT: motors running for one shot; a fail-safe timeout
//     returns the controller to IDLE even if no further command ever
//     arrives.
//   - CONTINUOUS: motors running and the trigger pulsing at a fixed
//     cadence until an explicit stop. The fail-safe timeout
//     deliberately does not apply here; ending continuous fire is a
//     user decision. This asymmetry is intentional.
//
// # Deadlines
//
// TimerState tracks three armed reference points against a monotonic
// clock reading:
//
//   - motor run timeout: stop the flywheels this long after a single
//     shot (default 2s)
//   - trigger pulse duration: how long the servo holds the fire
//     position (default 200ms)
//   - fire interval: spacing between shots in continuous mode
//     (default 500ms)
//
// Arming records the current reading; expiry checks are pure functions
// of a later reading, so the whole machine is testable with synthetic
// clock values.
//
// # Control Loop
//
// The Loop polls at a fixed tick. Each iteration services at most one
// pending command, then checks every armed deadline exactly once, in a
// fixed order: trigger release, motor timeout, fire cadence. Actuation
// calls are fire-and-forget; nothing in the control path blocks.
//
// # Safety Rules
//
// The controller maintains, in every reachable state:
//
//   - motors run exactly when the mode is not IDLE
//   - at most one trigger pulse is active at a time; a due shot is
//     skipped (never queued) while the previous pulse is still active
//   - EmergencyStop is accepted from any state, is idempotent, and
//     takes effect immediately: motors off, trigger released, every
//     deadline disarmed
//
// Redundant commands (firing while already firing, stopping while
// idle) are silent no-ops so the command surface is safe to spam.
package launcher
