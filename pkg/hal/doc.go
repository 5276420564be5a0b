// Package hal provides the hardware implementations of the launcher's
// actuation surface: a periph.io GPIO/PWM driver for real boards and a
// recording simulator for development and tests.
//
// Both implement launcher.Actuator. Actuation is fire-and-forget by
// contract: the GPIO driver reports pin faults through an optional
// error callback instead of propagating them into the control path,
// which stays open-loop.
package hal
