package service

import (
	"errors"
	"time"
)

// Service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrAlreadyStarted = errors.New("service already started")
	ErrNotConnected   = errors.New("not connected")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// ServiceState represents the service lifecycle state.
type ServiceState uint8

const (
	// StateIdle - service created but not started.
	StateIdle ServiceState = iota

	// StateStarting - service is starting up.
	StateStarting

	// StateRunning - service is running normally.
	StateRunning

	// StateStopping - service is shutting down.
	StateStopping

	// StateStopped - service has stopped.
	StateStopped
)

// String returns the state name.
func (s ServiceState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Reconnection backoff defaults.
const (
	// InitialBackoff is the initial reconnection delay.
	InitialBackoff = 1 * time.Second

	// MaxBackoff is the maximum reconnection delay.
	MaxBackoff = 60 * time.Second

	// BackoffMultiplier is the factor by which the delay grows.
	BackoffMultiplier = 2.0

	// JitterFactor is the maximum jitter as a fraction of the base
	// delay, applied so a fleet of remotes does not reconnect in
	// lockstep.
	JitterFactor = 0.25
)

// BackoffConfig tunes reconnection timing. Zero fields get the package
// defaults.
type BackoffConfig struct {
	// Initial is the first retry delay.
	Initial time.Duration

	// Max caps the retry delay.
	Max time.Duration

	// Multiplier is the growth factor per attempt.
	Multiplier float64

	// Jitter is the maximum random addition as a fraction of the base
	// delay. Negative disables jitter.
	Jitter float64
}
